package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zjrosen/mob/internal/mob/application"
	"github.com/zjrosen/mob/internal/mob/domain"
	"github.com/zjrosen/mob/internal/notify"
)

// ErrRunAborted is returned when a session start ends in the aborted state.
var ErrRunAborted = errors.New("mob session start aborted")

var (
	startDryRun bool
	startTimer  int
	startSound  bool
	startShare  bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start, join or rejoin the mob session",
	Long: `Fetch and pull, then bring this computer onto the wip branch:

  wip branch local and remote   rejoin (reset the local branch to the remote one)
  neither                       create it from the base branch and push it
  remote only                   join (check it out tracking the remote)
  local only                    purge the stale local branch and create it anew

Afterwards the typist timer starts and, if configured, screen sharing.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	f := startCmd.Flags()
	f.BoolVar(&startDryRun, "dry-run", false, "show what start would do without changing anything")
	f.IntVar(&startTimer, "timer", 0, "timer minutes for this session (default mob.timer_minutes)")
	f.BoolVar(&startSound, "sound", false, "beep when the timer expires")
	f.BoolVar(&startShare, "share", false, "start screen sharing")
	rootCmd.AddCommand(startCmd)
}

// startOverrides returns the per-session overrides given on the command line.
func startOverrides(cmd *cobra.Command) (minutes *int, sound, share *bool) {
	f := cmd.Flags()
	if f.Changed("timer") {
		minutes = &startTimer
	}
	if f.Changed("sound") {
		sound = &startSound
	}
	if f.Changed("share") {
		share = &startShare
	}
	return minutes, sound, share
}

func runStart(cmd *cobra.Command, _ []string) error {
	a := newApp()
	req := application.StartRequest{
		Dir:      a.workDir,
		Settings: a.settings.WithOverrides(startOverrides(cmd)),
	}

	if startDryRun {
		plan, err := a.orch.Plan(cmd.Context(), req)
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), plan)
		return nil
	}

	var result *domain.Result
	if out, ok := terminal(cmd.OutOrStdout()); ok && !plainFlag {
		_, err := notify.RunTUI(cmd.Context(), "Starting mob session", func(ctx context.Context, sink application.ProgressSink) {
			result = a.orch.Start(ctx, req, sink)
		}, tea.WithOutput(out))
		if err != nil {
			return err
		}
	} else {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		sink := notify.NewPlainSink(cmd.OutOrStdout(), progressWriter(cmd), outputWidth(cmd.OutOrStdout()))
		result = a.orch.Start(ctx, req, sink)
	}
	if result == nil {
		return ErrRunAborted
	}

	a.record(result)
	if !result.Completed() {
		return ErrRunAborted
	}
	return nil
}

// progressWriter is stderr in debug mode; progress is noise otherwise.
func progressWriter(cmd *cobra.Command) io.Writer {
	if debugFlag {
		return cmd.ErrOrStderr()
	}
	return nil
}

func printPlan(w io.Writer, p *application.Plan) {
	_, _ = fmt.Fprintf(w, "Repository: %s\n", p.Project)
	_, _ = fmt.Fprintf(w, "Current:    %s\n", p.Topology.CurrentBranch)
	_, _ = fmt.Fprintf(w, "Scenario:   %s\n", p.Scenario)
	_, _ = fmt.Fprintf(w, "\n%s\n", p.Announcement)
	if len(p.Steps) == 0 {
		_, _ = fmt.Fprintln(w, "  nothing to do")
	}
	for i, s := range p.Steps {
		_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
	_, _ = fmt.Fprintln(w, "\nDry run: fetch, pull and the steps above were not executed.")
}

// terminal reports whether w is an interactive terminal.
func terminal(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return nil, false
	}
	return f, term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

func outputWidth(w io.Writer) int {
	if f, ok := terminal(w); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil { //nolint:gosec // fd fits in int
			return width
		}
	}
	return notify.DefaultWidth
}
