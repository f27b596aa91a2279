// Package target implements the Target platform library.
//
// The Target exposes a small REST API authenticated with a static API key
// header: folders are listed and created under /folders, videos are
// searched under /videos and ingested from a URL with /videos/fetch.
package target

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/vidmirror/internal/connectors/request"
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
)

// Ensure Library implements the interface.
var _ driven.TargetLibrary = (*Library)(nil)

// Options are test and tuning hooks for NewLibrary.
type Options struct {
	HTTPClient *http.Client
	Sleep      func(ctx context.Context, d time.Duration) error
}

// Library performs folder and video operations on the Target.
type Library struct {
	client    *request.Client
	baseURL   string
	playerURL string
}

// NewLibrary creates a library from settings.
func NewLibrary(settings domain.TargetSettings, opts Options) (*Library, error) {
	if settings.BaseURL == "" {
		return nil, fmt.Errorf("%w: target base url", domain.ErrInvalidInput)
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: target api key", domain.ErrAuthRequired)
	}
	if _, err := url.Parse(settings.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: target base url: %w", domain.ErrInvalidInput, err)
	}

	header := settings.AuthHeader
	if header == "" {
		header = domain.DefaultTargetAuthHeader
	}

	base := strings.TrimRight(settings.BaseURL, "/")
	player := strings.TrimRight(settings.PlayerBaseURL, "/")
	if player == "" {
		player = base + "/play"
	}

	client := request.New(request.Config{
		Name:        "target",
		MaxAttempts: settings.MaxAttempts,
		RateLimit:   request.RateLimitConfig{RequestsPerSecond: settings.RequestsPerSecond},
		Headers:     map[string]string{header: settings.APIKey},
		HTTPClient:  opts.HTTPClient,
		Sleep:       opts.Sleep,
	})

	return &Library{client: client, baseURL: base, playerURL: player}, nil
}

// ListFolders returns every folder in the library.
func (l *Library) ListFolders(ctx context.Context) ([]domain.TargetFolder, error) {
	var list apiFolderList
	if err := l.client.GetJSON(ctx, l.baseURL+"/folders", &list); err != nil {
		return nil, err
	}

	folders := make([]domain.TargetFolder, 0, len(list.Data))
	for _, f := range list.Data {
		folders = append(folders, domain.TargetFolder{
			ID:       string(f.ID),
			Name:     f.Name,
			ParentID: f.ParentFolderID.ptr(),
		})
	}
	return folders, nil
}

// CreateFolder creates a folder under parentID, or at the top level when nil.
func (l *Library) CreateFolder(ctx context.Context, name string, parentID *string) (*domain.TargetFolder, error) {
	body, err := l.client.Do(ctx, http.MethodPost, l.baseURL+"/folders",
		createFolderRequest{Name: name, ParentFolderID: parentID}, nil)
	if err != nil {
		return nil, err
	}

	var created apiFolder
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode created folder: %w", err)
	}
	if created.ID == "" {
		return nil, &domain.FormatError{Kind: "created folder", Value: string(body)}
	}

	return &domain.TargetFolder{ID: string(created.ID), Name: name, ParentID: parentID}, nil
}

// SearchVideos returns videos in folderID matching title, in Target order.
func (l *Library) SearchVideos(ctx context.Context, folderID, title string) ([]domain.TargetVideo, error) {
	q := url.Values{}
	q.Set("folder_id", folderID)
	q.Set("title", title)

	var list apiVideoList
	if err := l.client.GetJSON(ctx, l.baseURL+"/videos?"+q.Encode(), &list); err != nil {
		return nil, err
	}

	videos := make([]domain.TargetVideo, 0, len(list.Data))
	for _, v := range list.Data {
		videos = append(videos, l.toDomain(v))
	}
	return videos, nil
}

// IngestVideo asks the Target to fetch a video from sourceURL.
func (l *Library) IngestVideo(ctx context.Context, folderID, title, sourceURL string) (*domain.TargetVideo, error) {
	body, err := l.client.Do(ctx, http.MethodPost, l.baseURL+"/videos/fetch",
		fetchVideoRequest{URL: sourceURL, Title: title, FolderID: folderID}, nil)
	if err != nil {
		return nil, err
	}

	var created apiVideo
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode ingested video: %w", err)
	}
	if created.ID == "" {
		return nil, &domain.FormatError{Kind: "ingested video", Value: string(body)}
	}
	if created.FolderID == "" {
		created.FolderID = flexID(folderID)
	}
	if created.Title == "" {
		created.Title = title
	}

	video := l.toDomain(created)
	return &video, nil
}

// PlayerURL returns the streaming reference of a Target video.
func (l *Library) PlayerURL(externalID string) string {
	return l.playerURL + "/" + externalID
}

// Close releases HTTP connections.
func (l *Library) Close() error {
	return l.client.Close()
}

func (l *Library) toDomain(v apiVideo) domain.TargetVideo {
	external := string(v.ExternalID)
	if external == "" {
		external = string(v.ID)
	}
	return domain.TargetVideo{
		ID:         string(v.ID),
		Title:      v.Title,
		FolderID:   string(v.FolderID),
		ExternalID: external,
		PlayerURL:  l.PlayerURL(external),
	}
}
