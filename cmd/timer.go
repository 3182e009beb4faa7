package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mob/internal/timer"
)

var timerSound bool

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Manage the typist timer",
}

var timerStartCmd = &cobra.Command{
	Use:   "start [minutes]",
	Short: "Start the timer (default mob.timer_minutes)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTimerStart,
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := newApp().timer.Stop(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Timer stopped")
		return nil
	},
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the time left",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Timer: %s\n", timerSummary(newApp().timer, time.Now()))
		return nil
	},
}

var timerWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the timer expires, then notify",
	Long:  `Block until the timer expires, then show a desktop notification and beep if the timer was started with sound. A restart by another mob process extends the wait.`,
	Args:  cobra.NoArgs,
	RunE:  runTimerWait,
}

func init() {
	timerStartCmd.Flags().BoolVar(&timerSound, "sound", false, "beep when the timer expires (default mob.timer_sound)")
	timerCmd.AddCommand(timerStartCmd, timerStopCmd, timerStatusCmd, timerWaitCmd)
	rootCmd.AddCommand(timerCmd)
}

func runTimerStart(cmd *cobra.Command, args []string) error {
	a := newApp()
	minutes := a.settings.TimerMinutes
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("minutes must be a number: %q", args[0])
		}
		minutes = n
	}
	sound := a.settings.TimerSound
	if cmd.Flags().Changed("sound") {
		sound = timerSound
	}
	if err := a.timer.Start(minutes, sound); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Started %d minute timer\n", minutes)
	return nil
}

func runTimerWait(cmd *cobra.Command, _ []string) error {
	err := newApp().timer.Wait(cmd.Context())
	switch {
	case errors.Is(err, timer.ErrStopped):
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Timer stopped")
		return nil
	case err != nil:
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Time is up")
	return nil
}
