package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// progressInterval is how often the plain-text progress line is refreshed.
var progressInterval = 500 * time.Millisecond

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror the Source library into the Target",
	Long: `Performs one complete mirror pass.

Every Source folder is matched by name (and parent) against the Target and
created when missing. Every Source video is looked up in the mapping store,
then searched by title in the Target folder; matches are recorded.

Folders or videos that fail are reported as skips and never abort the run.
Listing the root folders, or a mapping store failure, aborts the run.`,
	Args: cobra.NoArgs,
	RunE: runMirror,
}

func init() {
	mirrorCmd.Flags().Bool("read-only", false, "do not create Target folders; skip folders without a counterpart")
	mirrorCmd.Flags().Bool("create-videos", false, "ingest unmatched videos into the Target by URL")
	mirrorCmd.Flags().Bool("tui", false, "show live progress in an interactive terminal view")
	rootCmd.AddCommand(mirrorCmd)
}

func mirrorOptions(cmd *cobra.Command) (driving.MirrorOptions, error) {
	readOnly, err := cmd.Flags().GetBool("read-only")
	if err != nil {
		return driving.MirrorOptions{}, fmt.Errorf("getting read-only flag: %w", err)
	}
	createVideos, err := cmd.Flags().GetBool("create-videos")
	if err != nil {
		return driving.MirrorOptions{}, fmt.Errorf("getting create-videos flag: %w", err)
	}
	return driving.MirrorOptions{ReadOnly: readOnly, CreateVideos: createVideos}, nil
}

func runMirror(cmd *cobra.Command, _ []string) error {
	if mirrorService == nil {
		return errors.New("mirror service not configured")
	}

	opts, err := mirrorOptions(cmd)
	if err != nil {
		return err
	}

	useTUI, err := cmd.Flags().GetBool("tui")
	if err != nil {
		return fmt.Errorf("getting tui flag: %w", err)
	}
	if useTUI {
		return runMirrorTUI(cmd, opts)
	}

	if opts.ReadOnly {
		cmd.Println("Mirroring Source library (read-only)...")
	} else {
		cmd.Println("Mirroring Source library...")
	}

	report, err := mirrorWithProgress(cmd.Context(), cmd, mirrorService, opts)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("mirror failed: %w", err)
	}
	return nil
}

// mirrorWithProgress runs the mirror while printing live counters.
func mirrorWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	mirror driving.MirrorService,
	opts driving.MirrorOptions,
) (*domain.RunReport, error) {
	type result struct {
		report *domain.RunReport
		err    error
	}

	resultCh := make(chan result, 1)
	go func() {
		report, err := mirror.Run(ctx, opts)
		resultCh <- result{report: report, err: err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastSeen := -1
	printed := false
	for {
		select {
		case res := <-resultCh:
			if printed {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			status := mirror.Status()
			if !status.Running || status.Counters.VideosSeen == lastSeen {
				continue
			}
			lastSeen = status.Counters.VideosSeen
			printed = true
			cmd.Printf("\rFolders: %d  Videos: %d  Matched: %d  Skipped: %d",
				status.Counters.FoldersVisited, status.Counters.VideosSeen,
				status.Counters.VideosMatched, status.Skipped)
		}
	}
}
