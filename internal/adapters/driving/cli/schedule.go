package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vidmirror/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Mirror periodically until interrupted",
	Long: `Runs a mirror pass immediately and then on every schedule.interval.

A tick that arrives while a pass is still running is skipped. Changes to
schedule.interval in the config file are picked up without a restart.
Press Ctrl+C to stop; the active pass is allowed to finish.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().Bool("read-only", false, "do not create Target folders; skip folders without a counterpart")
	scheduleCmd.Flags().Bool("create-videos", false, "ingest unmatched videos into the Target by URL")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if newScheduler == nil {
		return errors.New("scheduler not configured")
	}

	opts, err := mirrorOptions(cmd)
	if err != nil {
		return err
	}

	// Scheduled runs are long-lived, so log lines carry a timestamp.
	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	scheduler := newScheduler(opts)
	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	err = scheduler.Start(cmd.Context())
	if stopErr := scheduler.Stop(); stopErr != nil {
		logger.Warn("scheduler stop: %v", stopErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}

	cmd.Println("Scheduler stopped.")
	return nil
}
