package domain

import "strings"

// Settings is the immutable configuration of one mob session start.
type Settings struct {
	WipBranch      string
	BaseBranch     string
	RemoteName     string
	TimerMinutes   int
	TimerSound     bool
	StartWithShare bool
}

// ValidateForStart checks the settings and returns an *InvalidConfigError
// naming the first violated rule, or nil.
func (s Settings) ValidateForStart() error {
	switch {
	case strings.TrimSpace(s.WipBranch) == "":
		return &InvalidConfigError{Reason: "wip branch name is empty"}
	case strings.TrimSpace(s.BaseBranch) == "":
		return &InvalidConfigError{Reason: "base branch name is empty"}
	case strings.TrimSpace(s.RemoteName) == "":
		return &InvalidConfigError{Reason: "remote name is empty"}
	case s.WipBranch == s.BaseBranch:
		return &InvalidConfigError{Reason: "wip branch and base branch must differ (both are " + s.WipBranch + ")"}
	case !plainRefName(s.WipBranch):
		return &InvalidConfigError{Reason: "wip branch name " + quote(s.WipBranch) + " is malformed"}
	case !plainRefName(s.BaseBranch):
		return &InvalidConfigError{Reason: "base branch name " + quote(s.BaseBranch) + " is malformed"}
	case strings.ContainsAny(s.RemoteName, " \t\n/"):
		return &InvalidConfigError{Reason: "remote name " + quote(s.RemoteName) + " is malformed"}
	case s.TimerMinutes <= 0:
		return &InvalidConfigError{Reason: "timer minutes must be positive"}
	}
	return nil
}

// WithOverrides returns a copy with the per-session fields replaced by any
// non-nil override.
func (s Settings) WithOverrides(timerMinutes *int, timerSound, startWithShare *bool) Settings {
	if timerMinutes != nil {
		s.TimerMinutes = *timerMinutes
	}
	if timerSound != nil {
		s.TimerSound = *timerSound
	}
	if startWithShare != nil {
		s.StartWithShare = *startWithShare
	}
	return s
}

// RemoteRef names branch on remote the way git abbreviates remote-tracking
// refs, e.g. "origin/main".
func RemoteRef(remote, branch string) string {
	return remote + "/" + branch
}

// RemoteWipBranch returns "<remote>/<wip>".
func (s Settings) RemoteWipBranch() string {
	return RemoteRef(s.RemoteName, s.WipBranch)
}

// RemoteBaseBranch returns "<remote>/<base>".
func (s Settings) RemoteBaseBranch() string {
	return RemoteRef(s.RemoteName, s.BaseBranch)
}

// plainRefName rejects names git would refuse outright. Full validation
// happens against the repository with check-ref-format.
func plainRefName(name string) bool {
	if strings.ContainsAny(name, " \t\n~^:?*[\\") {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, "-") || strings.HasSuffix(name, "/") {
		return false
	}
	return true
}

func quote(s string) string {
	return `"` + s + `"`
}
