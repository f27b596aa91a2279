package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent mirror runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the full report of the most recent run",
	Args:  cobra.NoArgs,
	RunE:  runRunsLast,
}

func init() {
	runsCmd.Flags().IntP("limit", "n", defaultListLimit, "maximum number of runs to show")
	runsCmd.AddCommand(runsLastCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if mirrorService == nil {
		return errors.New("mirror service not configured")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	reports, err := mirrorService.History(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(reports) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tDURATION\tSEEN\tWRITES\tSKIPS")
	for i := range reports {
		r := &reports[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Status, r.Duration().Round(time.Millisecond),
			r.VideosSeen, r.Writes(), len(r.Skips))
	}
	return w.Flush()
}

func runRunsLast(cmd *cobra.Command, _ []string) error {
	if mirrorService == nil {
		return errors.New("mirror service not configured")
	}

	report, err := mirrorService.LastRun(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No runs recorded yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last run: %w", err)
	}

	printReport(cmd, report)
	return nil
}
