package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// executeCommand runs rootCmd with args and resets every flag afterwards.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withServices installs s for the duration of a test.
func withServices(s *Services) func() {
	oldSettings, oldMirror, oldMapping, oldScheduler := settingsService, mirrorService, mappingService, newScheduler
	SetServices(s)
	return func() {
		settingsService, mirrorService, mappingService, newScheduler = oldSettings, oldMirror, oldMapping, oldScheduler
	}
}

type mockSettingsService struct {
	entries     []driving.SettingEntry
	validateErr error
	setErr      error

	mu  sync.Mutex
	set map[string]string
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := domain.DefaultSettings()
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Entries() ([]driving.SettingEntry, error) {
	return m.entries, nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

type mockMirrorService struct {
	report  *domain.RunReport
	err     error
	history []domain.RunReport
	lastErr error

	mu      sync.Mutex
	gotOpts driving.MirrorOptions
	gotLim  int
}

func (m *mockMirrorService) Run(_ context.Context, opts driving.MirrorOptions) (*domain.RunReport, error) {
	m.mu.Lock()
	m.gotOpts = opts
	m.mu.Unlock()
	return m.report, m.err
}

func (m *mockMirrorService) Status() driving.MirrorStatus {
	return driving.MirrorStatus{}
}

func (m *mockMirrorService) LastRun(context.Context) (*domain.RunReport, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.report, nil
}

func (m *mockMirrorService) History(_ context.Context, limit int) ([]domain.RunReport, error) {
	m.gotLim = limit
	return m.history, nil
}

type mockMappingService struct {
	mapping  *domain.VideoMapping
	mappings []domain.VideoMapping
	total    int
	err      error

	gotRef   string
	gotLimit int
}

func (m *mockMappingService) Lookup(_ context.Context, ref string) (*domain.VideoMapping, error) {
	m.gotRef = ref
	if m.err != nil {
		return nil, m.err
	}
	return m.mapping, nil
}

func (m *mockMappingService) List(_ context.Context, limit int) ([]domain.VideoMapping, error) {
	m.gotLimit = limit
	return m.mappings, m.err
}

func (m *mockMappingService) Count(context.Context) (int, error) {
	return m.total, m.err
}

type mockScheduler struct {
	startErr error
	started  bool
	stopped  bool
}

func (m *mockScheduler) Start(context.Context) error {
	m.started = true
	return m.startErr
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}
