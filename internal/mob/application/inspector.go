package application

import (
	"context"

	gitapp "github.com/zjrosen/mob/internal/git/application"
	"github.com/zjrosen/mob/internal/mob/domain"
)

// Inspect reads the branch topology relevant to settings. It performs no
// mutation. Remote existence reflects the last fetch.
func Inspect(ctx context.Context, git gitapp.BranchReader, s domain.Settings) (domain.Topology, error) {
	current, err := git.CurrentBranch(ctx)
	if err != nil {
		return domain.Topology{}, &domain.InspectError{Err: err}
	}
	local, err := git.LocalBranchExists(ctx, s.WipBranch)
	if err != nil {
		return domain.Topology{}, &domain.InspectError{Err: err}
	}
	remote, err := git.RemoteBranchExists(ctx, s.RemoteName, s.WipBranch)
	if err != nil {
		return domain.Topology{}, &domain.InspectError{Err: err}
	}
	return domain.Topology{
		HasLocalWip:      local,
		HasRemoteWip:     remote,
		IsMobProgramming: current == s.WipBranch,
		CurrentBranch:    current,
	}, nil
}

// StatusLine summarizes the current branch and its tracking state.
func StatusLine(ctx context.Context, git gitapp.BranchReader, s domain.Settings) string {
	branch, err := git.CurrentBranch(ctx)
	if err != nil {
		return "Status unavailable: " + diagnostic(err)
	}
	line := "On branch " + branch
	if upstream, err := git.Upstream(ctx, branch); err == nil && upstream != "" {
		line += " tracking " + upstream
	}
	if branch == s.WipBranch {
		line += " (mob programming)"
	}
	return line
}
