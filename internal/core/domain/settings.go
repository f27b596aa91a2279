package domain

import (
	"fmt"
	"time"
)

// StoreDriver selects the mapping store backend.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverSQLite keeps mappings in a local SQLite file.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverPostgres keeps mappings in a shared PostgreSQL database.
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSQLite, StoreDriverPostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// SourceSettings configures the Source platform client.
type SourceSettings struct {
	BaseURL           string
	Token             string
	RootPath          string
	PlayerDomain      string
	PageSize          int
	MaxAttempts       int
	RequestsPerSecond float64
}

// TargetSettings configures the Target platform client.
type TargetSettings struct {
	BaseURL           string
	APIKey            string
	AuthHeader        string
	PlayerBaseURL     string
	MaxAttempts       int
	RequestsPerSecond float64
}

// MirrorSettings configures traversal behaviour.
type MirrorSettings struct {
	// CreateMissingFolders creates Target folders that do not exist.
	// When false the mirror is read-only for folders.
	CreateMissingFolders bool

	// CreateMissingVideos ingests unmatched videos into the Target by URL.
	CreateMissingVideos bool

	// InterItemDelay is the pause between successive items.
	InterItemDelay time.Duration
}

// StoreSettings configures mapping persistence.
type StoreSettings struct {
	Driver  StoreDriver
	DSN     string
	DataDir string
}

// ScheduleSettings configures periodic runs.
type ScheduleSettings struct {
	Interval time.Duration
}

// Settings is the full application configuration.
type Settings struct {
	Source   SourceSettings
	Target   TargetSettings
	Mirror   MirrorSettings
	Store    StoreSettings
	Schedule ScheduleSettings
}

// Default values.
const (
	DefaultSourceBaseURL     = "https://api.vimeo.com"
	DefaultSourceRootPath    = "/me/projects"
	DefaultPageSize          = 100
	MinPageSize              = 50
	MaxPageSize              = 100
	DefaultSourceMaxAttempts = 5
	DefaultTargetMaxAttempts = 3
	DefaultTargetAuthHeader  = "AccessKey"
	DefaultInterItemDelay    = 300 * time.Millisecond
	DefaultScheduleInterval  = 6 * time.Hour
	DefaultRequestsPerSecond = 0
	MinScheduleInterval      = time.Minute
)

// DefaultSettings returns the configuration used when nothing is set.
func DefaultSettings() Settings {
	return Settings{
		Source: SourceSettings{
			BaseURL:           DefaultSourceBaseURL,
			RootPath:          DefaultSourceRootPath,
			PlayerDomain:      DefaultPlayerDomain,
			PageSize:          DefaultPageSize,
			MaxAttempts:       DefaultSourceMaxAttempts,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		Target: TargetSettings{
			AuthHeader:        DefaultTargetAuthHeader,
			MaxAttempts:       DefaultTargetMaxAttempts,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		Mirror: MirrorSettings{
			CreateMissingFolders: true,
			CreateMissingVideos:  false,
			InterItemDelay:       DefaultInterItemDelay,
		},
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
		Schedule: ScheduleSettings{
			Interval: DefaultScheduleInterval,
		},
	}
}

// Validate checks that the settings are sufficient for a mirror run.
func (s *Settings) Validate() error {
	if s.Source.BaseURL == "" {
		return fmt.Errorf("%w: source.base_url is required", ErrInvalidInput)
	}
	if s.Source.Token == "" {
		return fmt.Errorf("%w: source token", ErrAuthRequired)
	}
	if s.Target.BaseURL == "" {
		return fmt.Errorf("%w: target.base_url is required", ErrInvalidInput)
	}
	if s.Target.APIKey == "" {
		return fmt.Errorf("%w: target api key", ErrAuthRequired)
	}
	if s.Source.PageSize < MinPageSize || s.Source.PageSize > MaxPageSize {
		return fmt.Errorf("%w: source.page_size must be between %d and %d",
			ErrInvalidInput, MinPageSize, MaxPageSize)
	}
	if s.Source.MaxAttempts < 1 || s.Target.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidInput)
	}
	if !s.Store.Driver.IsValid() {
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidInput, s.Store.Driver)
	}
	if s.Store.Driver == StoreDriverPostgres && s.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required for postgres", ErrInvalidInput)
	}
	return nil
}
