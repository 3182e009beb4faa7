package domain

import "errors"

// Git-specific errors.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrDetachedHead indicates HEAD is not pointing to a branch (detached HEAD state).
	ErrDetachedHead = errors.New("detached HEAD state")

	// ErrInvalidBranchName indicates the branch name format is invalid per git check-ref-format.
	ErrInvalidBranchName = errors.New("invalid branch name format")

	// ErrGitTimeout is returned when a git command exceeds its deadline.
	ErrGitTimeout = errors.New("git command timed out")

	// ErrRemoteNotFound indicates the configured remote is not set up in the repository.
	ErrRemoteNotFound = errors.New("remote not found")

	// ErrUncommittedChanges indicates the working tree has staged or unstaged changes.
	ErrUncommittedChanges = errors.New("uncommitted changes in working tree")

	// ErrGitNotInstalled indicates the git binary is not on PATH.
	ErrGitNotInstalled = errors.New("git executable not found")
)

// LookupError describes a failed repository resolution. Candidates lists
// the repositories found below Path when there was more than one.
type LookupError struct {
	Path       string
	Candidates []string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if len(e.Candidates) > 1 {
		return "multiple git repositories under " + e.Path
	}
	return ErrNotGitRepo.Error() + ": " + e.Path
}

// Unwrap returns ErrNotGitRepo.
func (e *LookupError) Unwrap() error {
	return ErrNotGitRepo
}
