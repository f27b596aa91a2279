package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// Ensure MappingService implements the interface.
var _ driving.MappingService = (*MappingService)(nil)

// MappingService provides read access to persisted video mappings.
type MappingService struct {
	store        driven.MappingStore
	playerDomain string
}

// NewMappingService creates a new mapping service.
func NewMappingService(store driven.MappingStore, playerDomain string) *MappingService {
	return &MappingService{
		store:        store,
		playerDomain: playerDomain,
	}
}

// Lookup finds the mapping for a Source reference. API URIs of the form
// "/videos/<id>" are converted to the canonical player reference first.
func (s *MappingService) Lookup(ctx context.Context, ref string) (*domain.VideoMapping, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", domain.ErrInvalidInput)
	}

	if strings.HasPrefix(ref, "/videos/") {
		canonical, err := domain.SourceVideoRef(ref, s.playerDomain)
		if err != nil {
			return nil, err
		}
		ref = canonical
	}

	return s.store.Get(ctx, ref)
}

// List returns recent mappings.
func (s *MappingService) List(ctx context.Context, limit int) ([]domain.VideoMapping, error) {
	return s.store.List(ctx, limit)
}

// Count returns the number of stored mappings.
func (s *MappingService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
