package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{
		WipBranch:    "mob-session",
		BaseBranch:   "main",
		RemoteName:   "origin",
		TimerMinutes: 10,
	}
}

func TestSettings_ValidateForStart(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		reason string
	}{
		{"valid", func(*Settings) {}, ""},
		{"empty wip", func(s *Settings) { s.WipBranch = "" }, "wip branch name is empty"},
		{"blank wip", func(s *Settings) { s.WipBranch = "  " }, "wip branch name is empty"},
		{"empty base", func(s *Settings) { s.BaseBranch = "" }, "base branch name is empty"},
		{"empty remote", func(s *Settings) { s.RemoteName = "" }, "remote name is empty"},
		{"same branches", func(s *Settings) { s.BaseBranch = "mob-session" }, "wip branch and base branch must differ"},
		{"wip with dots", func(s *Settings) { s.WipBranch = "mob..session" }, "wip branch name"},
		{"base with space", func(s *Settings) { s.BaseBranch = "ma in" }, "base branch name"},
		{"remote with slash", func(s *Settings) { s.RemoteName = "up/stream" }, "remote name"},
		{"zero timer", func(s *Settings) { s.TimerMinutes = 0 }, "timer minutes must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.ValidateForStart()
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			var cfgErr *InvalidConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.Contains(t, cfgErr.Reason, tt.reason)
		})
	}
}

func TestSettings_ValidateReportsFirstViolation(t *testing.T) {
	s := Settings{}
	err := s.ValidateForStart()
	require.EqualError(t, err, "invalid configuration: wip branch name is empty")
}

func TestSettings_WithOverrides(t *testing.T) {
	minutes := 25
	sound := true
	s := validSettings().WithOverrides(&minutes, &sound, nil)

	require.Equal(t, 25, s.TimerMinutes)
	require.True(t, s.TimerSound)
	require.False(t, s.StartWithShare)
	require.Equal(t, 10, validSettings().TimerMinutes, "receiver must be untouched")
}

func TestSettings_RemoteRefs(t *testing.T) {
	s := validSettings()
	require.Equal(t, "origin/mob-session", s.RemoteWipBranch())
	require.Equal(t, "origin/main", s.RemoteBaseBranch())
	require.Equal(t, "upstream/topic", RemoteRef("upstream", "topic"))
}
