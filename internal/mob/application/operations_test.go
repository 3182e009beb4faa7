package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperations_Messages(t *testing.T) {
	git := newFakeGit()
	git.remote["origin/feature"] = true
	ops := NewOperations(git)
	ctx := context.Background()

	tests := []struct {
		name string
		got  func() (bool, string)
		want string
	}{
		{"fetch", func() (bool, string) { o := ops.Fetch(ctx, "origin"); return o.Success, o.Message }, "Fetched origin"},
		{"pull", func() (bool, string) { o := ops.Pull(ctx); return o.Success, o.Message }, "Pulled main from origin/main"},
		{"create", func() (bool, string) { o := ops.CreateBranch(ctx, "topic"); return o.Success, o.Message }, "Created branch topic"},
		{"checkout", func() (bool, string) { o := ops.CheckoutBranch(ctx, "topic"); return o.Success, o.Message }, "Checked out topic"},
		{"push", func() (bool, string) { o := ops.Push(ctx, "origin", "topic"); return o.Success, o.Message }, "Pushed topic to origin"},
		{"upstream", func() (bool, string) { o := ops.SetUpstream(ctx, "origin", "topic"); return o.Success, o.Message }, "Set upstream of topic to origin/topic"},
		{"merge", func() (bool, string) { o := ops.MergeFastForward(ctx, "origin", "main"); return o.Success, o.Message }, "Fast-forwarded to origin/main"},
		{"checkout main", func() (bool, string) { o := ops.CheckoutBranch(ctx, "main"); return o.Success, o.Message }, "Checked out main"},
		{"delete", func() (bool, string) { o := ops.DeleteBranch(ctx, "topic"); return o.Success, o.Message }, "Deleted branch topic"},
	}

	for _, tt := range tests {
		ok, msg := tt.got()
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.want, msg, tt.name)
	}
}

func TestOperations_FailureCarriesDiagnostic(t *testing.T) {
	git := newFakeGit()
	git.failOn["push(origin,topic)"] = errors.New("git push: ! [rejected]\n   topic -> topic (non-fast-forward)")
	ops := NewOperations(git)

	out := ops.Push(context.Background(), "origin", "topic")

	require.False(t, out.Success)
	require.Equal(t, "Failed to push topic to origin: git push: ! [rejected] topic -> topic (non-fast-forward)", out.Message)
}

func TestOperations_PullWithoutUpstream(t *testing.T) {
	git := newFakeGit()
	delete(git.upstreams, "main")

	out := NewOperations(git).Pull(context.Background())

	require.True(t, out.Success)
	require.Equal(t, "Skipped pull: main has no upstream", out.Message)
	require.Empty(t, git.calls)
}

func TestOperations_PullFromGoneUpstream(t *testing.T) {
	git := newFakeGit()
	git.local["mob-session"] = true
	git.upstreams["mob-session"] = "origin/mob-session"
	git.current = "mob-session"

	out := NewOperations(git).Pull(context.Background())

	require.True(t, out.Success)
	require.Equal(t, "Skipped pull: upstream origin/mob-session of mob-session is gone", out.Message)
	require.Empty(t, git.calls)
}

func TestOperations_PullOnDetachedHead(t *testing.T) {
	git := newFakeGit()
	git.detached = true

	out := NewOperations(git).Pull(context.Background())

	require.False(t, out.Success)
	require.Contains(t, out.Message, "Failed to pull")
}

func TestOperations_RecoversFromPanic(t *testing.T) {
	git := newFakeGit()
	git.onCall = func(call string) {
		if call == "fetch(origin)" {
			panic("executor exploded")
		}
	}

	out := NewOperations(git).Fetch(context.Background(), "origin")

	require.False(t, out.Success)
	require.Equal(t, "Failed to fetch origin: executor exploded", out.Message)
}
