package driving

import "github.com/custodia-labs/vidmirror/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings with defaults and environment
	// overrides applied.
	Get() (*domain.Settings, error)

	// Set parses value according to the key's type and persists it.
	Set(key, value string) error

	// Entries returns every known setting for display. Secret values are masked.
	Entries() ([]SettingEntry, error)

	// Validate checks that the settings are sufficient for a mirror run.
	Validate() error
}

// SettingEntry is a single setting for display.
type SettingEntry struct {
	Key    string
	Value  string
	Secret bool

	// Origin is "default", "file" or "env".
	Origin string
}
