package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	gitdomain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/mob/domain"
)

func TestPlan_DescribesWithoutMutating(t *testing.T) {
	h := newHarness()
	h.git.local["mob-session"] = true

	plan, err := h.orch.Plan(context.Background(), StartRequest{Dir: "/work/app", Settings: h.settings})

	require.NoError(t, err)
	require.Equal(t, "/work/app", plan.Project)
	require.Equal(t, domain.ScenarioPurgeAndRecreate, plan.Scenario)
	require.Equal(t, "Purging local branch mob-session and starting a new wip branch from origin/main", plan.Announcement)
	require.Equal(t, []string{
		"deleteBranch(mob-session)",
		"checkout(main)",
		"mergeFastForward(origin,main)",
		"createBranch(mob-session)",
		"checkout(mob-session)",
		"push(origin,mob-session)",
	}, plan.Steps)
	require.Empty(t, h.git.calls)
	require.Empty(t, h.timer.starts)
}

func TestPlan_AlreadyMobProgramming(t *testing.T) {
	h := newHarness()
	h.git.local["mob-session"] = true
	h.git.remote["origin/mob-session"] = true
	h.git.current = "mob-session"

	plan, err := h.orch.Plan(context.Background(), StartRequest{Dir: "/work/app", Settings: h.settings})

	require.NoError(t, err)
	require.Equal(t, domain.ScenarioRejoining, plan.Scenario)
	require.Empty(t, plan.Steps)
	require.True(t, plan.Topology.IsMobProgramming)
}

func TestPlan_Preconditions(t *testing.T) {
	h := newHarness()
	h.git.dirty = true

	_, err := h.orch.Plan(context.Background(), StartRequest{Dir: "/work/app", Settings: h.settings})

	require.ErrorIs(t, err, gitdomain.ErrUncommittedChanges)

	h.settings.TimerMinutes = 0
	_, err = h.orch.Plan(context.Background(), StartRequest{Dir: "/work/app", Settings: h.settings})
	var cfgErr *domain.InvalidConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestStatus(t *testing.T) {
	h := newHarness()
	h.git.local["mob-session"] = true
	h.git.upstreams["mob-session"] = "origin/mob-session"
	h.git.current = "mob-session"

	st, err := h.orch.Status(context.Background(), "/work/app", h.settings)

	require.NoError(t, err)
	require.Equal(t, "/work/app", st.Project)
	require.Equal(t, "On branch mob-session tracking origin/mob-session (mob programming)", st.Line)
	require.True(t, st.Topology.HasLocalWip)
	require.False(t, st.Topology.HasRemoteWip)
	require.Equal(t, []gitdomain.BranchInfo{
		{Name: "main", Upstream: "origin/main"},
		{Name: "mob-session", IsCurrent: true, Upstream: "origin/mob-session", UpstreamGone: true},
	}, st.Branches)
}

func TestStatus_NoRepository(t *testing.T) {
	h := newHarness()
	h.resolver.err = &gitdomain.LookupError{Path: "/tmp"}

	_, err := h.orch.Status(context.Background(), "/tmp", h.settings)

	var noRepo *domain.NoRepositoryError
	require.True(t, errors.As(err, &noRepo))
	require.Equal(t, "/tmp", noRepo.Path)
}

func TestStatusLine_NoUpstream(t *testing.T) {
	git := newFakeGit()
	delete(git.upstreams, "main")
	line := StatusLine(context.Background(), git, domain.Settings{WipBranch: "mob-session"})
	require.Equal(t, "On branch main", line)
}
