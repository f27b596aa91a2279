package driven

import (
	"context"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

// MappingStore persists VideoMapping rows keyed by SourceVideoRef.
type MappingStore interface {
	// Get retrieves the mapping for a Source reference.
	// Returns domain.ErrNotFound if no row exists.
	Get(ctx context.Context, sourceVideoRef string) (*domain.VideoMapping, error)

	// Upsert inserts the mapping or atomically overwrites the existing row
	// with the same SourceVideoRef.
	Upsert(ctx context.Context, mapping domain.VideoMapping) error

	// List returns mappings ordered by most recent update, at most limit rows.
	// A limit of zero or less returns every row.
	List(ctx context.Context, limit int) ([]domain.VideoMapping, error)

	// Count returns the number of stored mappings.
	Count(ctx context.Context) (int, error)
}

// FolderCache holds the run-scoped Source folder to Target folder mapping.
type FolderCache interface {
	// Get returns the Target folder ID for a Source folder reference.
	Get(sourceFolderRef string) (string, bool)

	// Put records a mapping. The first write for a key wins; later writes
	// for the same key are ignored.
	Put(mapping domain.FolderMapping)

	// Len returns the number of cached folders.
	Len() int
}

// RunStore persists mirror run reports.
type RunStore interface {
	// SaveRun stores or updates a run report.
	SaveRun(ctx context.Context, report *domain.RunReport) error

	// LastRun returns the most recently started run.
	// Returns domain.ErrNotFound if no run was recorded.
	LastRun(ctx context.Context) (*domain.RunReport, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}
