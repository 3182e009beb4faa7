package domain

import "time"

// State is a step of the session start state machine. Transitions are
// strictly sequential and any failure jumps to StateAborted.
type State string

const (
	StateInit              State = "init"
	StatePreconditionCheck State = "precondition_check"
	StateFetching          State = "fetching"
	StatePulling           State = "pulling"
	StateScenarioExecution State = "scenario_execution"
	StatePostActions       State = "post_actions"
	StateCompleted         State = "completed"
	StateAborted           State = "aborted"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Outcome is the result of one git operation. Message is always logged,
// successful or not.
type Outcome struct {
	Success bool
	Message string
}

// Succeeded builds a successful outcome.
func Succeeded(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// Failed builds a failed outcome.
func Failed(message string) Outcome {
	return Outcome{Success: false, Message: message}
}

// ExecutionLog is an append-only sequence of status lines kept in the
// order the operations were attempted.
type ExecutionLog struct {
	entries []string
}

// Append adds a line at the end.
func (l *ExecutionLog) Append(line string) {
	l.entries = append(l.entries, line)
}

// Entries returns a copy of the lines.
func (l *ExecutionLog) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Result is the terminal value of one orchestration run.
type Result struct {
	GUID       string
	Project    string // repository root, empty if resolution failed
	Scenario   Scenario
	State      State // StateCompleted or StateAborted
	Messages   []string
	Warnings   []*NonFatalServiceWarning
	Err        error // cause of an aborted run
	StartedAt  time.Time
	FinishedAt time.Time
}

// Completed reports whether the run reached StateCompleted.
func (r *Result) Completed() bool {
	return r.State == StateCompleted
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRepository persists finished runs.
type RunRepository interface {
	Save(result *Result) error
	FindByGUID(guid string) (*Result, error)
	ListRecent(project string, limit int) ([]*Result, error)
}
