package connectors

import (
	"context"
	"net/http"
	"time"

	"github.com/custodia-labs/vidmirror/internal/connectors/source"
	"github.com/custodia-labs/vidmirror/internal/connectors/target"
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.PlatformFactory = (*Factory)(nil)

// Factory creates Source catalogs and Target libraries from settings.
type Factory struct {
	// HTTPClient replaces the default client of both platforms. Tests point
	// it at httptest servers.
	HTTPClient *http.Client

	// Sleep replaces the backoff timer of both platforms.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewFactory creates a factory that uses the default HTTP transports.
func NewFactory() *Factory {
	return &Factory{}
}

// NewSourceCatalog creates a Source catalog.
func (f *Factory) NewSourceCatalog(settings domain.SourceSettings) (driven.SourceCatalog, error) {
	catalog, err := source.NewCatalog(settings, source.Options{
		HTTPClient: f.HTTPClient,
		Sleep:      f.Sleep,
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// NewTargetLibrary creates a Target library.
func (f *Factory) NewTargetLibrary(settings domain.TargetSettings) (driven.TargetLibrary, error) {
	library, err := target.NewLibrary(settings, target.Options{
		HTTPClient: f.HTTPClient,
		Sleep:      f.Sleep,
	})
	if err != nil {
		return nil, err
	}
	return library, nil
}
