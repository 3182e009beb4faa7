package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	gitdomain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/timer"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mob state of the current repository",
	Long:  `Show the current branch, whether the wip branch exists locally and on the remote (as of the last fetch), and the timer.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a := newApp()
	st, err := a.orch.Status(cmd.Context(), a.workDir, a.settings)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, st.Line)
	_, _ = fmt.Fprintf(w, "Repository: %s\n", st.Project)
	_, _ = fmt.Fprintf(w, "Wip branch: %s (local: %s, %s: %s)\n",
		a.settings.WipBranch, yesNo(st.Topology.HasLocalWip), a.settings.RemoteName, yesNo(st.Topology.HasRemoteWip))
	_, _ = fmt.Fprintf(w, "Timer:      %s\n", timerSummary(a.timer, time.Now()))
	if len(st.Branches) > 0 {
		_, _ = fmt.Fprintln(w, "Branches:")
	}
	for _, b := range st.Branches {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", b.Name, tracking(b))
	}
	return nil
}

func tracking(b gitdomain.BranchInfo) string {
	switch {
	case b.Upstream == "":
		return "no upstream"
	case b.UpstreamGone:
		return "tracking " + b.Upstream + " (gone)"
	default:
		return "tracking " + b.Upstream
	}
}

func timerSummary(svc *timer.Service, now time.Time) string {
	st, err := svc.Current()
	switch {
	case errors.Is(err, timer.ErrNotRunning):
		return "not running"
	case err != nil:
		return "unavailable (" + err.Error() + ")"
	}
	return fmt.Sprintf("%s left of %d minutes", st.Remaining(now).Round(time.Second), st.Minutes)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
