package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoRepositoryError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NoRepositoryError
		expected string
	}{
		{
			name:     "none found",
			err:      &NoRepositoryError{Path: "/work"},
			expected: `no git repository found at "/work"`,
		},
		{
			name:     "single candidate is not ambiguous",
			err:      &NoRepositoryError{Path: "/work", Candidates: []string{"/work/a"}},
			expected: `no git repository found at "/work"`,
		},
		{
			name:     "ambiguous",
			err:      &NoRepositoryError{Path: "/work", Candidates: []string{"/work/a", "/work/b"}},
			expected: `ambiguous repository under "/work": 2 candidates ["/work/a" "/work/b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestInvalidRepositoryStateError_Unwrap(t *testing.T) {
	cause := errors.New("detached HEAD state")
	var err error = &InvalidRepositoryStateError{Reason: "HEAD is detached", Err: cause}

	require.ErrorIs(t, err, cause)
	require.Equal(t, "invalid repository state: HEAD is detached", err.Error())
}

func TestInspectError_Unwrap(t *testing.T) {
	cause := errors.New("not a git repository")
	var err error = &InspectError{Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "inspecting repository")
}

func TestErrorTypes_DistinctMessages(t *testing.T) {
	msgs := []string{
		(&NoRepositoryError{Path: "p"}).Error(),
		(&InvalidConfigError{Reason: "r"}).Error(),
		(&InvalidRepositoryStateError{Reason: "r"}).Error(),
		(&GitOperationError{Operation: "push", Diagnostic: "rejected"}).Error(),
		(&NonFatalServiceWarning{Service: "timer", Reason: "already running"}).Error(),
		(&RunNotFoundError{GUID: "g"}).Error(),
	}
	seen := make(map[string]bool)
	for _, m := range msgs {
		require.False(t, seen[m], "duplicate message %q", m)
		seen[m] = true
	}
	require.Equal(t, "git operation push failed: rejected", msgs[3])
	require.Equal(t, "timer: already running", msgs[4])
}
