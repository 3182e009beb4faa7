package application

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/zjrosen/mob/internal/mob/domain"
)

// For any topology and any failing step, nothing after the failing step
// runs, the run aborts and the failure is the last log line.
func TestStart_FailFastProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := newHarness()
		if rapid.Bool().Draw(t, "local") {
			h.git.local["mob-session"] = true
		}
		if rapid.Bool().Draw(t, "remote") {
			h.git.remote["origin/mob-session"] = true
		}

		// Dry pass to learn the full call sequence for this topology.
		probe := newHarness()
		for k, v := range h.git.local {
			probe.git.local[k] = v
		}
		for k, v := range h.git.remote {
			probe.git.remote[k] = v
		}
		if !probe.start().Completed() {
			t.Fatalf("probe run failed")
		}
		all := probe.git.calls

		idx := rapid.IntRange(0, len(all)-1).Draw(t, "failing call")
		failing := all[idx]
		h.git.failOn[failing] = errors.New("boom")

		result := h.start()

		if result.Completed() || result.State != domain.StateAborted {
			t.Fatalf("expected abort when %s fails, got %s", failing, result.State)
		}
		if got, want := len(h.git.calls), idx+1; got != want {
			t.Fatalf("expected %d calls, got %v", want, h.git.calls)
		}
		last := result.Messages[len(result.Messages)-1]
		if last != "Failed: boom" && !endsWith(last, ": boom") {
			t.Fatalf("last message %q does not describe the failure", last)
		}
		if len(h.timer.starts) != 0 {
			t.Fatalf("timer started on abort")
		}
	})
}

func endsWith(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
