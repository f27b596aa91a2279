package driven

import "github.com/custodia-labs/vidmirror/internal/core/domain"

// PlatformFactory creates platform adapters from configuration.
// Each mirror run creates its own pair and closes them when it ends.
type PlatformFactory interface {
	// NewSourceCatalog creates a Source catalog.
	NewSourceCatalog(settings domain.SourceSettings) (SourceCatalog, error)

	// NewTargetLibrary creates a Target library.
	NewTargetLibrary(settings domain.TargetSettings) (TargetLibrary, error)
}
