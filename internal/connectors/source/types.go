package source

import (
	"encoding/json"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

// Entry types used by item listings.
const (
	entryTypeFolder = "folder"
	entryTypeVideo  = "video"
)

// apiConnection is a related-resource link.
type apiConnection struct {
	URI   string `json:"uri"`
	Total int    `json:"total"`
}

// apiFolder is a folder (project) object.
type apiFolder struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Metadata struct {
		Connections struct {
			Videos  *apiConnection `json:"videos"`
			Items   *apiConnection `json:"items"`
			Folders *apiConnection `json:"folders"`
		} `json:"connections"`
	} `json:"metadata"`
}

// apiDownload is one downloadable rendition of a video.
type apiDownload struct {
	Quality string `json:"quality"`
	Link    string `json:"link"`
}

// apiVideo is a video object.
type apiVideo struct {
	Name     string        `json:"name"`
	URI      string        `json:"uri"`
	Link     string        `json:"link"`
	Download []apiDownload `json:"download"`
}

// apiEntry is the item wrapper of an item listing.
type apiEntry struct {
	Type   string     `json:"type"`
	Folder *apiFolder `json:"folder"`
	Video  *apiVideo  `json:"video"`
}

// decodeFolder extracts a folder from a raw listing entry.
// Returns false for entries that are not folders.
func decodeFolder(raw json.RawMessage) (domain.SourceFolder, bool, error) {
	var entry apiEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.SourceFolder{}, false, err
	}

	var f apiFolder
	switch {
	case entry.Folder != nil:
		f = *entry.Folder
	case entry.Type != "" && entry.Type != entryTypeFolder:
		return domain.SourceFolder{}, false, nil
	default:
		if err := json.Unmarshal(raw, &f); err != nil {
			return domain.SourceFolder{}, false, err
		}
	}

	if f.URI == "" {
		return domain.SourceFolder{}, false, nil
	}

	folder := domain.SourceFolder{Name: f.Name, URI: f.URI}
	conns := f.Metadata.Connections
	if conns.Videos != nil {
		folder.VideosURI = conns.Videos.URI
	}
	switch {
	case conns.Items != nil && conns.Items.URI != "":
		folder.ItemsURI = conns.Items.URI
	case conns.Folders != nil:
		folder.ItemsURI = conns.Folders.URI
	}
	return folder, true, nil
}

// decodeVideo extracts a video from a raw listing entry.
// Returns false for entries that are not videos.
func decodeVideo(raw json.RawMessage) (domain.SourceVideo, bool, error) {
	var entry apiEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.SourceVideo{}, false, err
	}

	var v apiVideo
	switch {
	case entry.Video != nil:
		v = *entry.Video
	case entry.Type != "" && entry.Type != entryTypeVideo:
		return domain.SourceVideo{}, false, nil
	default:
		if err := json.Unmarshal(raw, &v); err != nil {
			return domain.SourceVideo{}, false, err
		}
	}

	return domain.SourceVideo{
		Name:        v.Name,
		URI:         v.URI,
		Link:        v.Link,
		DownloadURL: pickDownload(v.Download),
	}, true, nil
}

// pickDownload prefers the source rendition, then the first usable link.
func pickDownload(downloads []apiDownload) string {
	for _, d := range downloads {
		if d.Quality == "source" && d.Link != "" {
			return d.Link
		}
	}
	for _, d := range downloads {
		if d.Link != "" {
			return d.Link
		}
	}
	return ""
}
