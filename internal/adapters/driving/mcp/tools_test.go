package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

var updated = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleGetMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("returns mapping", func(t *testing.T) {
		mapping := &mockMappingService{mapping: &domain.VideoMapping{
			SourceVideoRef:     "https://player.vimeo.com/video/42",
			TargetVideoID:      domain.StringPtr("tv-42"),
			TargetStreamingRef: domain.StringPtr("https://target.test/play/ext-42"),
			Title:              domain.StringPtr("Intro"),
			UpdatedAt:          updated,
		}}
		server := newTestServer(t, &Ports{Mapping: mapping})

		_, out, err := server.handleGetMapping(ctx, nil, GetMappingInput{Ref: "/videos/42"})

		require.NoError(t, err)
		assert.Equal(t, "/videos/42", mapping.gotRef)
		assert.True(t, out.Found)
		require.NotNil(t, out.Mapping)
		assert.Equal(t, "tv-42", out.Mapping.TargetVideoID)
		assert.Equal(t, "https://target.test/play/ext-42", out.Mapping.TargetStreamingRef)
		assert.Equal(t, "Intro", out.Mapping.Title)
		assert.True(t, out.Mapping.Mapped)
		assert.Equal(t, "2025-05-01T10:00:00Z", out.Mapping.UpdatedAt)
	})

	t.Run("partial row is not mapped", func(t *testing.T) {
		mapping := &mockMappingService{mapping: &domain.VideoMapping{
			SourceVideoRef: "https://player.vimeo.com/video/42",
			Title:          domain.StringPtr("Intro"),
		}}
		server := newTestServer(t, &Ports{Mapping: mapping})

		_, out, err := server.handleGetMapping(ctx, nil, GetMappingInput{Ref: "/videos/42"})

		require.NoError(t, err)
		assert.True(t, out.Found)
		assert.False(t, out.Mapping.Mapped)
		assert.Empty(t, out.Mapping.TargetVideoID)
	})

	t.Run("not found is not an error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{err: domain.ErrNotFound}})

		_, out, err := server.handleGetMapping(ctx, nil, GetMappingInput{Ref: "/videos/7"})

		require.NoError(t, err)
		assert.False(t, out.Found)
		assert.Nil(t, out.Mapping)
	})

	t.Run("invalid reference", func(t *testing.T) {
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{err: domain.ErrInvalidInput}})

		_, _, err := server.handleGetMapping(ctx, nil, GetMappingInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleListMappings(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, defaultListLimit},
		{"explicit limit", 5, 5},
		{"capped limit", 10000, maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := &mockMappingService{
				mappings: []domain.VideoMapping{{SourceVideoRef: "a", TargetVideoID: domain.StringPtr("t")}},
				count:    12,
			}
			server := newTestServer(t, &Ports{Mapping: mapping})

			_, out, err := server.handleListMappings(ctx, nil, ListMappingsInput{Limit: tt.limit})

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, mapping.gotLimit)
			assert.Equal(t, 1, out.Count)
			assert.Equal(t, 12, out.Total)
			assert.Equal(t, "a", out.Mappings[0].SourceVideoRef)
		})
	}

	t.Run("list error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{err: errors.New("database is locked")}})

		_, _, err := server.handleListMappings(ctx, nil, ListMappingsInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing mappings")
	})

	t.Run("count error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{countErr: errors.New("database is locked")}})

		_, _, err := server.handleListMappings(ctx, nil, ListMappingsInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "counting mappings")
	})
}

func TestServer_handleLastRun(t *testing.T) {
	ctx := context.Background()

	t.Run("returns last run", func(t *testing.T) {
		report := &domain.RunReport{
			ID:          "run-1",
			StartedAt:   updated,
			EndedAt:     updated.Add(time.Minute),
			Status:      domain.RunStatusSucceeded,
			RunCounters: domain.RunCounters{FoldersVisited: 2, VideosSeen: 3, VideosMatched: 3},
		}
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{}, Mirror: &mockMirrorService{last: report}})

		_, out, err := server.handleLastRun(ctx, nil, LastRunInput{})

		require.NoError(t, err)
		assert.True(t, out.Found)
		require.NotNil(t, out.Run)
		assert.Equal(t, "run-1", out.Run.ID)
		assert.Equal(t, "succeeded", out.Run.Status)
		assert.Equal(t, "2025-05-01T10:01:00Z", out.Run.EndedAt)
		assert.Equal(t, 3, out.Run.VideosMatched)
		assert.NotNil(t, out.Run.Skips)
	})

	t.Run("running report has no end time", func(t *testing.T) {
		report := &domain.RunReport{ID: "run-2", StartedAt: updated, Status: domain.RunStatusRunning}
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{}, Mirror: &mockMirrorService{last: report}})

		_, out, err := server.handleLastRun(ctx, nil, LastRunInput{})

		require.NoError(t, err)
		assert.Empty(t, out.Run.EndedAt)
	})

	t.Run("no runs yet", func(t *testing.T) {
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{}, Mirror: &mockMirrorService{err: domain.ErrNotFound}})

		_, out, err := server.handleLastRun(ctx, nil, LastRunInput{})

		require.NoError(t, err)
		assert.False(t, out.Found)
	})

	t.Run("mirror service not configured", func(t *testing.T) {
		server := newTestServer(t, &Ports{Mapping: &mockMappingService{}})

		_, _, err := server.handleLastRun(ctx, nil, LastRunInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
	})
}
