// Package domain provides domain types for git operations.
package domain

import "slices"

// Repository is the handle to a local git repository and its remotes.
// It is owned by the caller and only borrowed for one start operation.
type Repository struct {
	Root    string   // absolute path of the work tree top level
	Remotes []string // configured remote names
}

// HasRemote reports whether name is one of the repository's remotes.
func (r Repository) HasRemote(name string) bool {
	return slices.Contains(r.Remotes, name)
}

// BranchInfo holds information about a git branch.
type BranchInfo struct {
	Name      string // Branch name (e.g., "main", "mob-session")
	IsCurrent bool   // True if this is the currently checked out branch
	Upstream  string // Tracking ref (e.g., "origin/main"), empty if none
	// UpstreamGone is set when Upstream is configured but its remote-tracking
	// ref no longer exists, e.g. after the remote branch was deleted and pruned.
	UpstreamGone bool
}
