package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySourceBaseURL      = "source.base_url"
	keySourceToken        = "source.token"
	keySourceRootPath     = "source.root_path"
	keySourcePlayerDomain = "source.player_domain"
	keySourcePageSize     = "source.page_size"
	keySourceMaxAttempts  = "source.max_attempts"
	keySourceRPS          = "source.requests_per_second"
	keyTargetBaseURL      = "target.base_url"
	keyTargetAPIKey       = "target.api_key"
	keyTargetAuthHeader   = "target.auth_header"
	keyTargetPlayerURL    = "target.player_base_url"
	keyTargetMaxAttempts  = "target.max_attempts"
	keyTargetRPS          = "target.requests_per_second"
	keyMirrorCreateFolder = "mirror.create_missing_folders"
	keyMirrorCreateVideos = "mirror.create_missing_videos"
	keyMirrorDelay        = "mirror.inter_item_delay"
	keyStoreDriver        = "store.driver"
	keyStoreDSN           = "store.dsn"
	keyStoreDataDir       = "store.data_dir"
	keyScheduleInterval   = "schedule.interval"
)

// Environment variables that override secrets in the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvSourceToken  = "VIDMIRROR_SOURCE_TOKEN"
	EnvTargetAPIKey = "VIDMIRROR_TARGET_API_KEY"
	EnvDatabaseURL  = "VIDMIRROR_DATABASE_URL"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

// settingDef describes one configurable key.
type settingDef struct {
	key    string
	kind   settingKind
	secret bool
	env    string
	value  func(*domain.Settings) string
}

var settingDefs = []settingDef{
	{key: keySourceBaseURL, value: func(s *domain.Settings) string { return s.Source.BaseURL }},
	{key: keySourceToken, secret: true, env: EnvSourceToken,
		value: func(s *domain.Settings) string { return s.Source.Token }},
	{key: keySourceRootPath, value: func(s *domain.Settings) string { return s.Source.RootPath }},
	{key: keySourcePlayerDomain, value: func(s *domain.Settings) string { return s.Source.PlayerDomain }},
	{key: keySourcePageSize, kind: kindInt,
		value: func(s *domain.Settings) string { return strconv.Itoa(s.Source.PageSize) }},
	{key: keySourceMaxAttempts, kind: kindInt,
		value: func(s *domain.Settings) string { return strconv.Itoa(s.Source.MaxAttempts) }},
	{key: keySourceRPS, kind: kindFloat,
		value: func(s *domain.Settings) string { return formatFloat(s.Source.RequestsPerSecond) }},
	{key: keyTargetBaseURL, value: func(s *domain.Settings) string { return s.Target.BaseURL }},
	{key: keyTargetAPIKey, secret: true, env: EnvTargetAPIKey,
		value: func(s *domain.Settings) string { return s.Target.APIKey }},
	{key: keyTargetAuthHeader, value: func(s *domain.Settings) string { return s.Target.AuthHeader }},
	{key: keyTargetPlayerURL, value: func(s *domain.Settings) string { return s.Target.PlayerBaseURL }},
	{key: keyTargetMaxAttempts, kind: kindInt,
		value: func(s *domain.Settings) string { return strconv.Itoa(s.Target.MaxAttempts) }},
	{key: keyTargetRPS, kind: kindFloat,
		value: func(s *domain.Settings) string { return formatFloat(s.Target.RequestsPerSecond) }},
	{key: keyMirrorCreateFolder, kind: kindBool,
		value: func(s *domain.Settings) string { return strconv.FormatBool(s.Mirror.CreateMissingFolders) }},
	{key: keyMirrorCreateVideos, kind: kindBool,
		value: func(s *domain.Settings) string { return strconv.FormatBool(s.Mirror.CreateMissingVideos) }},
	{key: keyMirrorDelay, kind: kindDuration,
		value: func(s *domain.Settings) string { return s.Mirror.InterItemDelay.String() }},
	{key: keyStoreDriver, value: func(s *domain.Settings) string { return s.Store.Driver.String() }},
	{key: keyStoreDSN, secret: true, env: EnvDatabaseURL,
		value: func(s *domain.Settings) string { return s.Store.DSN }},
	{key: keyStoreDataDir, value: func(s *domain.Settings) string { return s.Store.DataDir }},
	{key: keyScheduleInterval, kind: kindDuration,
		value: func(s *domain.Settings) string { return s.Schedule.Interval.String() }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing keys take their
// defaults and secret environment variables override the file.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	delay, err := s.getDuration(keyMirrorDelay, defaults.Mirror.InterItemDelay)
	if err != nil {
		return nil, err
	}
	interval, err := s.getDuration(keyScheduleInterval, defaults.Schedule.Interval)
	if err != nil {
		return nil, err
	}
	if interval < domain.MinScheduleInterval {
		logger.Warn("schedule.interval %s is below the minimum, using %s", interval, domain.MinScheduleInterval)
		interval = domain.MinScheduleInterval
	}

	settings := &domain.Settings{
		Source: domain.SourceSettings{
			BaseURL:           s.getString(keySourceBaseURL, defaults.Source.BaseURL),
			Token:             s.getSecret(keySourceToken, EnvSourceToken),
			RootPath:          s.getString(keySourceRootPath, defaults.Source.RootPath),
			PlayerDomain:      s.getString(keySourcePlayerDomain, defaults.Source.PlayerDomain),
			PageSize:          s.getInt(keySourcePageSize, defaults.Source.PageSize),
			MaxAttempts:       s.getInt(keySourceMaxAttempts, defaults.Source.MaxAttempts),
			RequestsPerSecond: s.getFloat(keySourceRPS, defaults.Source.RequestsPerSecond),
		},
		Target: domain.TargetSettings{
			BaseURL:           s.configStore.GetString(keyTargetBaseURL), // No default
			APIKey:            s.getSecret(keyTargetAPIKey, EnvTargetAPIKey),
			AuthHeader:        s.getString(keyTargetAuthHeader, defaults.Target.AuthHeader),
			PlayerBaseURL:     s.configStore.GetString(keyTargetPlayerURL), // Derived from base_url when empty
			MaxAttempts:       s.getInt(keyTargetMaxAttempts, defaults.Target.MaxAttempts),
			RequestsPerSecond: s.getFloat(keyTargetRPS, defaults.Target.RequestsPerSecond),
		},
		Mirror: domain.MirrorSettings{
			CreateMissingFolders: s.getBool(keyMirrorCreateFolder, defaults.Mirror.CreateMissingFolders),
			CreateMissingVideos:  s.getBool(keyMirrorCreateVideos, defaults.Mirror.CreateMissingVideos),
			InterItemDelay:       delay,
		},
		Store: domain.StoreSettings{
			Driver:  domain.StoreDriver(s.getString(keyStoreDriver, defaults.Store.Driver.String())),
			DSN:     s.getSecret(keyStoreDSN, EnvDatabaseURL),
			DataDir: s.configStore.GetString(keyStoreDataDir),
		},
		Schedule: domain.ScheduleSettings{
			Interval: interval,
		},
	}

	return settings, nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(def, value)
	if err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Entries returns every known setting with its effective value and origin.
func (s *SettingsService) Entries() ([]driving.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]driving.SettingEntry, 0, len(settingDefs))
	for _, def := range settingDefs {
		entry := driving.SettingEntry{
			Key:    def.key,
			Value:  def.value(settings),
			Secret: def.secret,
			Origin: "default",
		}
		if _, ok := s.configStore.Get(def.key); ok {
			entry.Origin = "file"
		}
		if def.env != "" && s.getenv(def.env) != "" {
			entry.Origin = "env"
		}
		if def.secret && entry.Value != "" {
			entry.Value = maskSecret(entry.Value)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Validate checks that the settings are sufficient for a mirror run.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// Helper methods

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getSecret(key, env string) string {
	if val := s.getenv(env); val != "" {
		return val
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

// getDuration accepts a Go duration string or a whole number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal, nil
	}
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		return d, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	default:
		return 0, fmt.Errorf("%w: %s: unsupported value %v", domain.ErrInvalidInput, key, raw)
	}
}

func lookupSetting(key string) (settingDef, bool) {
	for _, def := range settingDefs {
		if def.key == key {
			return def, true
		}
	}
	return settingDef{}, false
}

// parseSetting converts a command-line value to the type stored in config.
func parseSetting(def settingDef, value string) (any, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, def.key, err)
	}

	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, invalid(err)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, invalid(err)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, invalid(err)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, invalid(err)
		}
		return d.String(), nil
	default:
		if def.key == keyStoreDriver && !domain.StoreDriver(value).IsValid() {
			return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidInput, value)
		}
		return value, nil
	}
}

// SettingKeys returns every configurable key in display order.
func SettingKeys() []string {
	keys := make([]string, len(settingDefs))
	for i, def := range settingDefs {
		keys[i] = def.key
	}
	return keys
}

// IsSecretSetting reports whether key holds a credential.
func IsSecretSetting(key string) bool {
	def, ok := lookupSetting(key)
	return ok && def.secret
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
