// Package config provides configuration types and defaults for mob.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/mob/internal/mob/domain"
)

// Config holds all configuration options for mob.
type Config struct {
	Mob     MobConfig     `mapstructure:"mob" yaml:"mob"`
	Git     GitConfig     `mapstructure:"git" yaml:"git"`
	Timer   TimerConfig   `mapstructure:"timer" yaml:"timer"`
	Share   ShareConfig   `mapstructure:"share" yaml:"share"`
	DataDir string        `mapstructure:"data_dir" yaml:"data_dir"` // empty means ~/.mob
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// MobConfig is the session configuration shared by the whole team.
type MobConfig struct {
	WipBranch      string `mapstructure:"wip_branch" yaml:"wip_branch"`
	BaseBranch     string `mapstructure:"base_branch" yaml:"base_branch"`
	RemoteName     string `mapstructure:"remote_name" yaml:"remote_name"`
	TimerMinutes   int    `mapstructure:"timer_minutes" yaml:"timer_minutes"`
	TimerSound     bool   `mapstructure:"timer_sound" yaml:"timer_sound"`
	StartWithShare bool   `mapstructure:"start_with_share" yaml:"start_with_share"`
}

// GitConfig controls how git is invoked.
type GitConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AllowDirty bool          `mapstructure:"allow_dirty" yaml:"allow_dirty"`
}

// TimerConfig holds options for timer expiry.
type TimerConfig struct {
	// Notify shows a desktop notification when the timer expires.
	Notify bool `mapstructure:"notify" yaml:"notify"`
}

// ShareConfig holds the screen share launcher.
type ShareConfig struct {
	// Command is split on whitespace and started detached. Empty disables sharing.
	Command string `mapstructure:"command" yaml:"command"`
}

// Tracing exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TracingConfig selects where spans go.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	// Endpoint is the OTLP gRPC collector address, e.g. localhost:4317.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// File receives spans for the stdout exporter. Empty means
	// <data_dir>/traces.jsonl, since stdout itself belongs to the result.
	File     string `mapstructure:"file" yaml:"file"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Mob: MobConfig{
			WipBranch:    "mob-session",
			BaseBranch:   "main",
			RemoteName:   "origin",
			TimerMinutes: 10,
		},
		Git: GitConfig{
			Timeout: 60 * time.Second,
		},
		Timer: TimerConfig{
			Notify: true,
		},
		Tracing: TracingConfig{
			Exporter: ExporterNone,
		},
	}
}

// Settings converts the mob section to the value a session start consumes.
func (c Config) Settings() domain.Settings {
	return domain.Settings{
		WipBranch:      c.Mob.WipBranch,
		BaseBranch:     c.Mob.BaseBranch,
		RemoteName:     c.Mob.RemoteName,
		TimerMinutes:   c.Mob.TimerMinutes,
		TimerSound:     c.Mob.TimerSound,
		StartWithShare: c.Mob.StartWithShare,
	}
}

// ValidateGit checks git configuration for errors.
func ValidateGit(g GitConfig) error {
	if g.Timeout <= 0 {
		return fmt.Errorf("git.timeout must be positive, got %s", g.Timeout)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t TracingConfig) error {
	switch t.Exporter {
	case "", ExporterNone, ExporterStdout:
		return nil
	case ExporterOTLP:
		if t.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required for the %s exporter", ExporterOTLP)
		}
		return nil
	default:
		return fmt.Errorf("tracing.exporter: unknown exporter %q (want %s, %s or %s)",
			t.Exporter, ExporterNone, ExporterStdout, ExporterOTLP)
	}
}

// Validate checks the sections that are not validated at session start.
// The mob section is checked by domain.Settings.ValidateForStart.
func (c Config) Validate() error {
	if err := ValidateGit(c.Git); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Mob Configuration

# Session settings. Everyone in the mob must use the same values.
mob:
  wip_branch: mob-session   # Shared work-in-progress branch
  base_branch: main         # Branch new sessions start from
  remote_name: origin       # Remote hosting the wip branch
  timer_minutes: 10         # Length of one typist turn
  timer_sound: false        # Beep when the timer expires
  start_with_share: false   # Run share.command on every start

# Git invocation
git:
  timeout: 60s        # Per-command timeout
  allow_dirty: false  # Start even with uncommitted changes

# Timer
timer:
  notify: true  # Desktop notification when the timer expires

# Screen share launcher, split on whitespace and started detached
share:
  command: ""  # e.g. open -a zoom.us

# Directory for logs, timer state and run history (default: ~/.mob)
# data_dir: /path/to/dir

# Tracing of session starts
tracing:
  exporter: none  # none, stdout or otlp
  # endpoint: localhost:4317  # OTLP gRPC collector (otlp only)
  # insecure: true            # Plaintext gRPC (otlp only)
  # file: /tmp/mob-traces.jsonl  # Span file (stdout only)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
