package source

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/vidmirror/internal/connectors/request"
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// AcceptHeader pins the API version.
const AcceptHeader = "application/vnd.vimeo.*+json;version=3.4"

// Ensure Catalog implements the interface.
var _ driven.SourceCatalog = (*Catalog)(nil)

// Options are test and tuning hooks for NewCatalog.
type Options struct {
	// HTTPClient replaces the OAuth 2.0 client. The token is not applied.
	HTTPClient *http.Client

	// Sleep replaces the backoff timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Catalog lists Source folders and videos.
type Catalog struct {
	client  *request.Client
	lister  *Lister
	rootURL string
}

// NewCatalog creates a catalog from settings.
func NewCatalog(settings domain.SourceSettings, opts Options) (*Catalog, error) {
	if settings.BaseURL == "" {
		return nil, fmt.Errorf("%w: source base url", domain.ErrInvalidInput)
	}

	hc := opts.HTTPClient
	if hc == nil {
		if settings.Token == "" {
			return nil, fmt.Errorf("%w: source token", domain.ErrAuthRequired)
		}
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: settings.Token},
		)
		hc = oauth2.NewClient(context.Background(), ts)
		hc.Timeout = request.DefaultTimeout
	}

	client := request.New(request.Config{
		Name:        "source",
		MaxAttempts: settings.MaxAttempts,
		RateLimit:   request.RateLimitConfig{RequestsPerSecond: settings.RequestsPerSecond},
		Headers:     map[string]string{"Accept": AcceptHeader},
		HTTPClient:  hc,
		Sleep:       opts.Sleep,
	})

	lister, err := NewLister(client, settings.BaseURL, settings.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: source base url: %w", domain.ErrInvalidInput, err)
	}

	rootPath := settings.RootPath
	if rootPath == "" {
		rootPath = domain.DefaultSourceRootPath
	}

	return &Catalog{
		client:  client,
		lister:  lister,
		rootURL: lister.resolve(rootPath),
	}, nil
}

// RootURL returns the listing URL of the top-level folders.
func (c *Catalog) RootURL() string {
	return c.rootURL
}

// Folders yields pages of folders found at url.
func (c *Catalog) Folders(ctx context.Context, url string) iter.Seq2[[]domain.SourceFolder, error] {
	return func(yield func([]domain.SourceFolder, error) bool) {
		for page, err := range c.lister.Pages(ctx, url) {
			if err != nil {
				yield(nil, err)
				return
			}

			folders := make([]domain.SourceFolder, 0, len(page.Data))
			for _, raw := range page.Data {
				folder, ok, err := decodeFolder(raw)
				if err != nil {
					logger.Warn("source: skipping undecodable folder entry: %v", err)
					continue
				}
				if !ok {
					continue
				}
				folder.VideosURI = c.resolveOptional(folder.VideosURI)
				folder.ItemsURI = c.resolveOptional(folder.ItemsURI)
				folders = append(folders, folder)
			}

			if !yield(folders, nil) {
				return
			}
		}
	}
}

// Videos yields pages of videos found at url.
func (c *Catalog) Videos(ctx context.Context, url string) iter.Seq2[[]domain.SourceVideo, error] {
	return func(yield func([]domain.SourceVideo, error) bool) {
		for page, err := range c.lister.Pages(ctx, url) {
			if err != nil {
				yield(nil, err)
				return
			}

			videos := make([]domain.SourceVideo, 0, len(page.Data))
			for _, raw := range page.Data {
				video, ok, err := decodeVideo(raw)
				if err != nil {
					logger.Warn("source: skipping undecodable video entry: %v", err)
					continue
				}
				if ok {
					videos = append(videos, video)
				}
			}

			if !yield(videos, nil) {
				return
			}
		}
	}
}

// Close releases HTTP connections.
func (c *Catalog) Close() error {
	if c.client == nil {
		return errors.New("source: catalog not initialised")
	}
	return c.client.Close()
}

func (c *Catalog) resolveOptional(ref string) string {
	if ref == "" {
		return ""
	}
	return c.lister.resolve(ref)
}
