// Package application defines ports (interfaces) for git operations.
package application

import (
	"context"

	domain "github.com/zjrosen/mob/internal/git/domain"
)

// BranchReader answers read-only questions about a repository.
type BranchReader interface {
	// CurrentBranch returns the checked out branch.
	// Returns ErrDetachedHead when HEAD does not point at a branch.
	CurrentBranch(ctx context.Context) (string, error)
	LocalBranchExists(ctx context.Context, name string) (bool, error)
	// RemoteBranchExists checks refs/remotes/<remote>/<name>, i.e. the state
	// as of the last fetch.
	RemoteBranchExists(ctx context.Context, remote, name string) (bool, error)
	// Upstream returns the short tracking ref of branch, or "" if none.
	Upstream(ctx context.Context, branch string) (string, error)
	// ListBranches returns the local branches with their tracking state.
	ListBranches(ctx context.Context) ([]domain.BranchInfo, error)
	// Remotes returns the configured remote names.
	Remotes(ctx context.Context) ([]string, error)
	// HasUncommittedChanges reports staged or unstaged changes to tracked files.
	HasUncommittedChanges(ctx context.Context) (bool, error)
	// ValidateBranchName validates a branch name using git check-ref-format --branch.
	// Returns nil if valid, ErrInvalidBranchName if invalid.
	ValidateBranchName(ctx context.Context, name string) error
}

// BranchWriter mutates refs and the working tree.
type BranchWriter interface {
	Fetch(ctx context.Context, remote string) error
	// Pull fast-forwards the current branch from its upstream.
	Pull(ctx context.Context) error
	Checkout(ctx context.Context, branch string) error
	CreateBranch(ctx context.Context, branch string) error
	// DeleteBranch force-deletes a local branch regardless of merge status.
	DeleteBranch(ctx context.Context, branch string) error
	MergeFastForward(ctx context.Context, remote, branch string) error
	// Push pushes branch to remote and records it as upstream.
	Push(ctx context.Context, remote, branch string) error
	SetUpstream(ctx context.Context, remote, branch string) error
}

// GitExecutor combines read and write operations on one repository.
// This abstraction allows for easy testing with mock implementations.
type GitExecutor interface {
	BranchReader
	BranchWriter
}

// ExecutorFactory binds a GitExecutor to a resolved repository.
type ExecutorFactory func(repo domain.Repository) GitExecutor

// RepositoryResolver finds the repository a session start should act on.
type RepositoryResolver interface {
	Resolve(ctx context.Context, dir string) (domain.Repository, error)
}
