package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

// MirrorService mirrors the Source hierarchy into the Target.
type MirrorService interface {
	// Run performs one complete mirror pass and returns its report.
	// Item-level failures are recorded as skips in the report. A non-nil
	// error means the run was aborted; the report is still returned.
	Run(ctx context.Context, opts MirrorOptions) (*domain.RunReport, error)

	// Status returns live progress of the active run.
	Status() MirrorStatus

	// LastRun returns the most recent recorded run.
	LastRun(ctx context.Context) (*domain.RunReport, error)

	// History returns recent runs, newest first.
	History(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// MirrorOptions override configured behaviour for a single run.
type MirrorOptions struct {
	// ReadOnly disables Target folder creation. Folders without a
	// counterpart are skipped together with their subtree.
	ReadOnly bool

	// CreateVideos enables URL ingestion of unmatched videos.
	CreateVideos bool
}

// MirrorStatus represents the live state of a mirror run.
type MirrorStatus struct {
	// Running indicates if a run is currently in progress.
	Running bool

	// RunID identifies the active run.
	RunID string

	// StartedAt is when the active run started.
	StartedAt time.Time

	// CurrentFolder is the name of the folder being visited.
	CurrentFolder string

	// Counters are the running totals.
	Counters domain.RunCounters

	// Skipped is the number of skipped items so far.
	Skipped int
}

// MappingService answers questions about persisted video mappings.
type MappingService interface {
	// Lookup finds the mapping for a Source reference. Accepts either the
	// canonical player reference or a "/videos/<id>" API URI.
	Lookup(ctx context.Context, ref string) (*domain.VideoMapping, error)

	// List returns recent mappings.
	List(ctx context.Context, limit int) ([]domain.VideoMapping, error)

	// Count returns the number of stored mappings.
	Count(ctx context.Context) (int, error)
}
