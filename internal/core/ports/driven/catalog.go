package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

// SourceCatalog reads the folder hierarchy of the Source platform.
//
// Listings are lazy page sequences: each iteration step performs at most one
// remote call. A fetch failure is yielded once as the error value and ends
// the sequence. A listing is restarted only by calling the method again.
type SourceCatalog interface {
	// RootURL returns the listing URL of the top-level folders.
	RootURL() string

	// Folders yields pages of folders found at url.
	// Entries that are not folders are dropped.
	Folders(ctx context.Context, url string) iter.Seq2[[]domain.SourceFolder, error]

	// Videos yields pages of videos found at url.
	Videos(ctx context.Context, url string) iter.Seq2[[]domain.SourceVideo, error]

	// Close releases the HTTP connections held by the catalog.
	Close() error
}

// TargetLibrary performs folder and video operations on the Target platform.
type TargetLibrary interface {
	// ListFolders returns every folder in the library.
	ListFolders(ctx context.Context) ([]domain.TargetFolder, error)

	// CreateFolder creates a folder. parentID nil creates a top-level folder.
	CreateFolder(ctx context.Context, name string, parentID *string) (*domain.TargetFolder, error)

	// SearchVideos returns videos in folderID whose title matches title,
	// in the order the Target reports them.
	SearchVideos(ctx context.Context, folderID, title string) ([]domain.TargetVideo, error)

	// IngestVideo asks the Target to fetch a video from sourceURL into folderID.
	IngestVideo(ctx context.Context, folderID, title, sourceURL string) (*domain.TargetVideo, error)

	// Close releases the HTTP connections held by the library.
	Close() error
}
