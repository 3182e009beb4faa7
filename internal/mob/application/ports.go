// Package application implements the mob session start: precondition
// checks, topology inspection, scenario dispatch and post actions.
package application

import "context"

// ProgressSink receives advisory progress and exactly one final result.
type ProgressSink interface {
	// ReportProgress is called with a fraction in [0, 1].
	ReportProgress(fraction float64)
	// ReportResult is called once when the run terminates.
	ReportResult(success bool, title string, messages []string)
}

// Timer is the session timer collaborator.
type Timer interface {
	IsRunning() bool
	// Start starts a countdown. An error means the timer is unavailable.
	Start(minutes int, sound bool) error
}

// Share triggers screen sharing. It is fire-and-forget; an error only
// means the share action is unavailable.
type Share interface {
	Trigger(ctx context.Context) error
}

// SinkFuncs adapts plain functions to ProgressSink. Nil fields are ignored.
type SinkFuncs struct {
	Progress func(fraction float64)
	Result   func(success bool, title string, messages []string)
}

func (s SinkFuncs) ReportProgress(fraction float64) {
	if s.Progress != nil {
		s.Progress(fraction)
	}
}

func (s SinkFuncs) ReportResult(success bool, title string, messages []string) {
	if s.Result != nil {
		s.Result(success, title, messages)
	}
}
