package domain

// SourceFolder is a folder listed by the Source platform.
type SourceFolder struct {
	// Name is the folder's display name.
	Name string

	// URI is the folder's API reference. Used as the folder cache key.
	URI string

	// VideosURI lists the videos directly inside the folder. May be empty.
	VideosURI string

	// ItemsURI lists the folder's children. May be empty.
	ItemsURI string
}

// IsLeaf returns true when the folder exposes neither videos nor children.
func (f SourceFolder) IsLeaf() bool {
	return f.VideosURI == "" && f.ItemsURI == ""
}

// SourceVideo is a video listed by the Source platform.
type SourceVideo struct {
	// Name is the video title.
	Name string

	// URI is the video's API reference, of the form "/videos/<id>".
	URI string

	// Link is the public page of the video.
	Link string

	// DownloadURL is a direct file link, when the Source exposes one.
	DownloadURL string
}

// TargetFolder is a folder on the Target platform.
type TargetFolder struct {
	ID   string
	Name string

	// ParentID is nil for top-level folders.
	ParentID *string
}

// TargetVideo is a video on the Target platform.
type TargetVideo struct {
	ID         string
	Title      string
	FolderID   string
	ExternalID string

	// PlayerURL is the streaming reference derived from ExternalID.
	PlayerURL string
}

// MatchResult describes what the matcher decided for one Source video.
type MatchResult struct {
	// SourceVideoRef is the derived mapping key.
	SourceVideoRef string

	// Matched is true when a Target counterpart is known after the call.
	Matched bool

	// AlreadyMapped is true when the store already held the mapping.
	AlreadyMapped bool

	// Created is true when the Target video was created by this call.
	Created bool

	TargetID           string
	TargetStreamingRef string
}
