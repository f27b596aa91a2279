package mcp

import (
	"context"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// mockMappingService is a mock implementation of driving.MappingService.
type mockMappingService struct {
	mapping  *domain.VideoMapping
	mappings []domain.VideoMapping
	count    int
	err      error
	countErr error

	gotRef   string
	gotLimit int
}

func (m *mockMappingService) Lookup(_ context.Context, ref string) (*domain.VideoMapping, error) {
	m.gotRef = ref
	return m.mapping, m.err
}

func (m *mockMappingService) List(_ context.Context, limit int) ([]domain.VideoMapping, error) {
	m.gotLimit = limit
	return m.mappings, m.err
}

func (m *mockMappingService) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

// mockMirrorService is a mock implementation of driving.MirrorService.
type mockMirrorService struct {
	last    *domain.RunReport
	history []domain.RunReport
	err     error
}

func (m *mockMirrorService) Run(context.Context, driving.MirrorOptions) (*domain.RunReport, error) {
	return nil, m.err
}

func (m *mockMirrorService) Status() driving.MirrorStatus {
	return driving.MirrorStatus{}
}

func (m *mockMirrorService) LastRun(context.Context) (*domain.RunReport, error) {
	return m.last, m.err
}

func (m *mockMirrorService) History(context.Context, int) ([]domain.RunReport, error) {
	return m.history, m.err
}
