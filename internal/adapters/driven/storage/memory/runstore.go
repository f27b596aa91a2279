package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunReport
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunReport),
	}
}

// SaveRun stores or updates a run report.
func (s *RunStore) SaveRun(_ context.Context, report *domain.RunReport) error {
	if report == nil || report.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := *report
	r.Skips = append([]domain.Skip(nil), report.Skips...)
	s.runs[r.ID] = r
	return nil
}

// LastRun returns the most recently started run.
func (s *RunStore) LastRun(ctx context.Context) (*domain.RunReport, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &runs[0], nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RunReport, 0, len(s.runs))
	for _, r := range s.runs {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
