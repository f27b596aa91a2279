package domain

import (
	"regexp"
	"time"
)

// DefaultPlayerDomain is the Source domain used to build player references.
const DefaultPlayerDomain = "vimeo.com"

var videoURIPattern = regexp.MustCompile(`^/videos/(\d+)$`)

// VideoMapping is the persisted link between a Source video and its
// Target counterpart. SourceVideoRef is the unique key.
type VideoMapping struct {
	// SourceVideoRef is the canonical player URL of the Source video.
	SourceVideoRef string

	// TargetVideoID is the Target's identifier. Nil until a match is found.
	TargetVideoID *string

	// TargetStreamingRef is the Target player URL.
	TargetStreamingRef *string

	// Title is the Source title at the time of the last write.
	Title *string

	// UpdatedAt is when the row was last written.
	UpdatedAt time.Time
}

// IsMapped returns true if the mapping already points at a Target video.
func (m *VideoMapping) IsMapped() bool {
	return m != nil && m.TargetVideoID != nil && *m.TargetVideoID != ""
}

// FolderMapping links a Source folder to a Target folder for the duration
// of a single run. It is never persisted.
type FolderMapping struct {
	SourceFolderRef string
	TargetFolderID  string
}

// SourceVideoRef derives the canonical Source reference of a video from its
// API URI. Only "/videos/<digits>" is accepted; every other shape returns a
// *FormatError.
func SourceVideoRef(uri, playerDomain string) (string, error) {
	m := videoURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", &FormatError{Kind: "video uri", Value: uri}
	}
	if playerDomain == "" {
		playerDomain = DefaultPlayerDomain
	}
	return "https://player." + playerDomain + "/video/" + m[1], nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// SameParent reports whether two optional folder parents are equal.
// Nil equals only nil.
func SameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
