package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// VideoMatcher decides whether a Source video already has a Target
// counterpart and records the answer in the MappingStore.
type VideoMatcher struct {
	library       driven.TargetLibrary
	store         driven.MappingStore
	playerDomain  string
	createMissing bool
	now           func() time.Time
}

// NewVideoMatcher creates a matcher. When createMissing is true, videos
// without a Target match are ingested by URL.
func NewVideoMatcher(
	library driven.TargetLibrary,
	store driven.MappingStore,
	playerDomain string,
	createMissing bool,
) *VideoMatcher {
	return &VideoMatcher{
		library:       library,
		store:         store,
		playerDomain:  playerDomain,
		createMissing: createMissing,
		now:           time.Now,
	}
}

// Reconcile matches one Source video inside targetFolderID.
//
// A video that is already mapped returns without any remote call. Otherwise
// the Target is searched by exact title and the first result wins. Exactly one
// mapping row is written per match or creation; an unmatched video writes
// nothing. MappingStore failures wrap domain.ErrMappingStore.
func (m *VideoMatcher) Reconcile(
	ctx context.Context,
	video domain.SourceVideo,
	targetFolderID string,
) (domain.MatchResult, error) {
	// 1. Derive the canonical reference
	ref, err := domain.SourceVideoRef(video.URI, m.playerDomain)
	if err != nil {
		return domain.MatchResult{}, err
	}
	result := domain.MatchResult{SourceVideoRef: ref}

	// 2. Already mapped by an earlier run
	existing, err := m.store.Get(ctx, ref)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return result, fmt.Errorf("%w: get %s: %w", domain.ErrMappingStore, ref, err)
	}
	if existing.IsMapped() {
		result.Matched = true
		result.AlreadyMapped = true
		result.TargetID = *existing.TargetVideoID
		if existing.TargetStreamingRef != nil {
			result.TargetStreamingRef = *existing.TargetStreamingRef
		}
		return result, nil
	}

	// 3. Search the Target folder by title
	found, err := m.library.SearchVideos(ctx, targetFolderID, video.Name)
	if err != nil {
		return result, fmt.Errorf("search target videos: %w", err)
	}
	if len(found) > 0 {
		if len(found) > 1 {
			logger.Debug("%d target videos titled %q, using %s", len(found), video.Name, found[0].ID)
		}
		return m.record(ctx, result, video, &found[0], false)
	}

	// 4. Optionally ingest the video by URL
	sourceURL := video.DownloadURL
	if sourceURL == "" {
		sourceURL = video.Link
	}
	if !m.createMissing || sourceURL == "" {
		logger.Debug("No target match for %q", video.Name)
		return result, nil
	}

	created, err := m.library.IngestVideo(ctx, targetFolderID, video.Name, sourceURL)
	if err != nil {
		return result, fmt.Errorf("ingest video: %w", err)
	}
	return m.record(ctx, result, video, created, true)
}

// record upserts the mapping for a found or created Target video.
func (m *VideoMatcher) record(
	ctx context.Context,
	result domain.MatchResult,
	video domain.SourceVideo,
	target *domain.TargetVideo,
	created bool,
) (domain.MatchResult, error) {
	mapping := domain.VideoMapping{
		SourceVideoRef: result.SourceVideoRef,
		TargetVideoID:  domain.StringPtr(target.ID),
		Title:          domain.StringPtr(video.Name),
		UpdatedAt:      m.now().UTC(),
	}
	if target.PlayerURL != "" {
		mapping.TargetStreamingRef = domain.StringPtr(target.PlayerURL)
	}

	if err := m.store.Upsert(ctx, mapping); err != nil {
		return result, fmt.Errorf("%w: upsert %s: %w", domain.ErrMappingStore, result.SourceVideoRef, err)
	}

	result.Matched = !created
	result.Created = created
	result.TargetID = target.ID
	result.TargetStreamingRef = target.PlayerURL
	return result, nil
}
