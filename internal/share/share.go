// Package share starts the configured screen share launcher.
package share

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zjrosen/mob/internal/log"
)

// ErrNoCommand is returned when no share command is configured.
var ErrNoCommand = errors.New("no share command configured")

// Command runs a share launcher detached from mob.
type Command struct {
	argv []string
	dir  string
}

// New returns a launcher for command, split on whitespace, or nil when
// command is blank so callers can treat sharing as unavailable.
func New(command, dir string) *Command {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil
	}
	return &Command{argv: argv, dir: dir}
}

// Trigger starts the launcher and returns without waiting for it. Only a
// failure to start is reported; the launcher's own exit status is logged.
func (c *Command) Trigger(ctx context.Context) error {
	if c == nil {
		return ErrNoCommand
	}
	// The launcher outlives this run, so it must not inherit cancellation.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), c.argv[0], c.argv[1:]...) //nolint:gosec // command comes from the user's config
	cmd.Dir = c.dir
	if err := cmd.Start(); err != nil {
		log.Warn(log.CatShare, "share command failed to start", "argv", c.argv, "error", err)
		return fmt.Errorf("starting %s: %w", c.argv[0], err)
	}
	log.Info(log.CatShare, "share command started", "argv", c.argv, "pid", cmd.Process.Pid)

	log.SafeGo("share-wait", func() {
		if err := cmd.Wait(); err != nil {
			log.Warn(log.CatShare, "share command exited with error", "argv", c.argv, "error", err)
			return
		}
		log.Debug(log.CatShare, "share command exited", "argv", c.argv)
	})
	return nil
}
