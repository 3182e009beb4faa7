package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/mob/internal/mob/application"
	"github.com/zjrosen/mob/internal/mob/domain"
	"github.com/zjrosen/mob/internal/notify"
)

var (
	historyLimit int
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent session starts",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <guid>",
	Short: "Show the log of one session start",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to list (0 for all)")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "list runs of every repository")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a := newApp()

	project := ""
	if !historyAll {
		repo, err := a.resolver.Resolve(cmd.Context(), a.workDir)
		if err != nil {
			return fmt.Errorf("%w (use --all outside a repository)", err)
		}
		project = repo.Root
	}

	db, err := a.openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	runs, err := db.RunRepository().ListRecent(project, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No session starts recorded.")
		return nil
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), historyTable(runs, historyAll))
	return nil
}

func historyTable(runs []*domain.Result, withProject bool) string {
	headers := []string{"STARTED", "GUID", "SCENARIO", "STATE", "DURATION"}
	if withProject {
		headers = append(headers, "REPOSITORY")
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...)
	for _, r := range runs {
		row := []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.GUID,
			r.Scenario.String(),
			string(r.State),
			r.Duration().Round(time.Millisecond).String(),
		}
		if withProject {
			row = append(row, r.Project)
		}
		t.Row(row...)
	}
	return t.Render()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a := newApp()
	db, err := a.openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	run, err := db.RunRepository().FindByGUID(args[0])
	if err != nil {
		return err
	}
	printRun(cmd.OutOrStdout(), run)
	return nil
}

func printRun(w io.Writer, r *domain.Result) {
	_, _ = fmt.Fprintf(w, "Run:        %s\n", r.GUID)
	_, _ = fmt.Fprintf(w, "Repository: %s\n", r.Project)
	_, _ = fmt.Fprintf(w, "Scenario:   %s\n", r.Scenario)
	_, _ = fmt.Fprintf(w, "Started:    %s\n", r.StartedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(w, "Duration:   %s\n", r.Duration().Round(time.Millisecond))
	if r.Err != nil {
		_, _ = fmt.Fprintf(w, "Error:      %s\n", r.Err)
	}
	_, _ = fmt.Fprintln(w)

	title := application.TitleCompleted
	if !r.Completed() {
		title = application.TitleAborted
	}
	notify.NewPlainSink(w, nil, outputWidth(w)).ReportResult(r.Completed(), title, r.Messages)
}
