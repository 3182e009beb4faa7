package domain

import "fmt"

// NoRepositoryError indicates no usable repository could be resolved,
// either because none was found or because several were.
type NoRepositoryError struct {
	Path       string
	Candidates []string
}

// Error implements the error interface.
func (e *NoRepositoryError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("ambiguous repository under %q: %d candidates %q", e.Path, len(e.Candidates), e.Candidates)
	}
	return fmt.Sprintf("no git repository found at %q", e.Path)
}

// InvalidConfigError carries the first configuration rule that failed.
type InvalidConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// InvalidRepositoryStateError indicates the repository cannot host a
// session start as it is (detached HEAD, missing remote, dirty tree...).
type InvalidRepositoryStateError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *InvalidRepositoryStateError) Error() string {
	return "invalid repository state: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *InvalidRepositoryStateError) Unwrap() error {
	return e.Err
}

// InspectError indicates the branch topology could not be read.
type InspectError struct {
	Err error
}

// Error implements the error interface.
func (e *InspectError) Error() string {
	return fmt.Sprintf("inspecting repository: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *InspectError) Unwrap() error {
	return e.Err
}

// GitOperationError records which git operation failed and why.
type GitOperationError struct {
	Operation  string
	Diagnostic string
}

// Error implements the error interface.
func (e *GitOperationError) Error() string {
	return fmt.Sprintf("git operation %s failed: %s", e.Operation, e.Diagnostic)
}

// NonFatalServiceWarning is reported by the timer and share collaborators.
// It never changes the terminal state of a run.
type NonFatalServiceWarning struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *NonFatalServiceWarning) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// RunNotFoundError indicates no stored run has the given GUID.
type RunNotFoundError struct {
	GUID string
}

// Error implements the error interface.
func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run not found: guid=%q", e.GUID)
}
