package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

const defaultListLimit = 20

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect video mappings",
}

var mappingGetCmd = &cobra.Command{
	Use:   "get <ref>",
	Short: "Show the mapping of a Source video",
	Long: `Show the Target counterpart of a Source video.

The reference may be the canonical player URL or a "/videos/<id>" URI.`,
	Args: cobra.ExactArgs(1),
	RunE: runMappingGet,
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently updated mappings",
	Args:  cobra.NoArgs,
	RunE:  runMappingList,
}

func init() {
	mappingListCmd.Flags().IntP("limit", "n", defaultListLimit, "maximum number of mappings to show")
	mappingCmd.AddCommand(mappingGetCmd)
	mappingCmd.AddCommand(mappingListCmd)
	rootCmd.AddCommand(mappingCmd)
}

func runMappingGet(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	m, err := mappingService.Lookup(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Printf("No mapping for %s\n", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	cmd.Printf("Source:    %s\n", m.SourceVideoRef)
	cmd.Printf("Title:     %s\n", orDash(m.Title))
	cmd.Printf("Target ID: %s\n", orDash(m.TargetVideoID))
	cmd.Printf("Streaming: %s\n", orDash(m.TargetStreamingRef))
	cmd.Printf("Updated:   %s\n", m.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runMappingList(cmd *cobra.Command, _ []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	mappings, err := mappingService.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list mappings: %w", err)
	}
	total, err := mappingService.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count mappings: %w", err)
	}

	if len(mappings) == 0 {
		cmd.Println("No mappings recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTARGET ID\tTITLE\tUPDATED")
	for _, m := range mappings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			m.SourceVideoRef, orDash(m.TargetVideoID), orDash(m.Title), m.UpdatedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	cmd.Printf("\nShowing %d of %d\n", len(mappings), total)
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
