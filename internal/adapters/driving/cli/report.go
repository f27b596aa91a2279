package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

// printReport writes a run summary followed by every skipped item.
func printReport(cmd *cobra.Command, r *domain.RunReport) {
	cmd.Printf("Run %s %s in %s\n", r.ID, r.Status, r.Duration())
	cmd.Printf("  Folders: %d visited, %d created\n", r.FoldersVisited, r.FoldersCreated)
	cmd.Printf("  Videos:  %d seen, %d matched (%d already mapped), %d created, %d unmatched\n",
		r.VideosSeen, r.VideosMatched, r.VideosAlreadyMapped, r.VideosCreated, r.VideosUnmatched)
	cmd.Printf("  Mappings written: %d\n", r.Writes())

	if r.Error != "" {
		cmd.Printf("  Error: %s\n", r.Error)
	}

	if len(r.Skips) == 0 {
		return
	}
	cmd.Printf("  Skipped: %d\n", len(r.Skips))
	for _, s := range r.Skips {
		cmd.Printf("    %s %q (%s): %s\n", s.Kind, s.Name, s.Ref, s.Reason)
	}
}
