package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
)

// Ensure MappingStore implements the interface.
var _ driven.MappingStore = (*MappingStore)(nil)

// MappingStore is an in-memory implementation of driven.MappingStore.
type MappingStore struct {
	mu       sync.RWMutex
	mappings map[string]domain.VideoMapping
	writes   int
}

// NewMappingStore creates a new in-memory mapping store.
func NewMappingStore() *MappingStore {
	return &MappingStore{
		mappings: make(map[string]domain.VideoMapping),
	}
}

// Get retrieves the mapping for a Source reference.
func (s *MappingStore) Get(_ context.Context, sourceVideoRef string) (*domain.VideoMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[sourceVideoRef]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

// Upsert inserts or overwrites the mapping with the same key.
func (s *MappingStore) Upsert(_ context.Context, mapping domain.VideoMapping) error {
	if mapping.SourceVideoRef == "" {
		return domain.ErrInvalidInput
	}
	if mapping.UpdatedAt.IsZero() {
		mapping.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[mapping.SourceVideoRef] = mapping
	s.writes++
	return nil
}

// List returns mappings ordered by most recent update.
func (s *MappingStore) List(_ context.Context, limit int) ([]domain.VideoMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.VideoMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].SourceVideoRef < result[j].SourceVideoRef
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the number of stored mappings.
func (s *MappingStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings), nil
}

// Writes returns the number of successful upserts since creation.
func (s *MappingStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
