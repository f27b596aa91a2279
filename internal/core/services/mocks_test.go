package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// --- Source ---

// fakeSource serves fixed pages per listing URL. An error registered for a
// URL is yielded after that URL's pages.
type fakeSource struct {
	root        string
	folderPages map[string][][]domain.SourceFolder
	videoPages  map[string][][]domain.SourceVideo
	errs        map[string]error

	mu     sync.Mutex
	calls  []string
	closed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		root:        "https://api.test/me/projects",
		folderPages: make(map[string][][]domain.SourceFolder),
		videoPages:  make(map[string][][]domain.SourceVideo),
		errs:        make(map[string]error),
	}
}

func (f *fakeSource) RootURL() string { return f.root }

func (f *fakeSource) Folders(_ context.Context, url string) iter.Seq2[[]domain.SourceFolder, error] {
	return func(yield func([]domain.SourceFolder, error) bool) {
		f.record(url)
		for _, page := range f.folderPages[url] {
			if !yield(page, nil) {
				return
			}
		}
		if err := f.errs[url]; err != nil {
			yield(nil, err)
		}
	}
}

func (f *fakeSource) Videos(_ context.Context, url string) iter.Seq2[[]domain.SourceVideo, error] {
	return func(yield func([]domain.SourceVideo, error) bool) {
		f.record(url)
		for _, page := range f.videoPages[url] {
			if !yield(page, nil) {
				return
			}
		}
		if err := f.errs[url]; err != nil {
			yield(nil, err)
		}
	}
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) record(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
}

func (f *fakeSource) listed(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// --- Target ---

// fakeTarget is an in-memory Target library. Created folders get IDs
// "tf-1", "tf-2", ... and ingested videos "tv-1", "tv-2", ...
type fakeTarget struct {
	mu      sync.Mutex
	folders []domain.TargetFolder
	videos  map[string][]domain.TargetVideo

	listErr    error
	createErr  error
	searchErrs map[string]error
	ingestErr  error

	listCalls   int
	createCalls int
	searchCalls int
	ingestCalls int
	created     []domain.TargetFolder
	ingested    []string
	nextFolder  int
	nextVideo   int
	closed      bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		videos:     make(map[string][]domain.TargetVideo),
		searchErrs: make(map[string]error),
	}
}

func videoKey(folderID, title string) string {
	return folderID + "/" + title
}

func (f *fakeTarget) addVideo(folderID string, v domain.TargetVideo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.FolderID = folderID
	if v.PlayerURL == "" {
		v.PlayerURL = "https://target.test/play/" + v.ID
	}
	key := videoKey(folderID, v.Title)
	f.videos[key] = append(f.videos[key], v)
}

func (f *fakeTarget) ListFolders(_ context.Context) ([]domain.TargetFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.TargetFolder(nil), f.folders...), nil
}

func (f *fakeTarget) CreateFolder(_ context.Context, name string, parentID *string) (*domain.TargetFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextFolder++
	folder := domain.TargetFolder{
		ID:       fmt.Sprintf("tf-%d", f.nextFolder),
		Name:     name,
		ParentID: parentID,
	}
	f.folders = append(f.folders, folder)
	f.created = append(f.created, folder)
	return &folder, nil
}

func (f *fakeTarget) SearchVideos(_ context.Context, folderID, title string) ([]domain.TargetVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if err := f.searchErrs[title]; err != nil {
		return nil, err
	}
	return append([]domain.TargetVideo(nil), f.videos[videoKey(folderID, title)]...), nil
}

func (f *fakeTarget) IngestVideo(_ context.Context, folderID, title, sourceURL string) (*domain.TargetVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingestCalls++
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	f.nextVideo++
	v := domain.TargetVideo{
		ID:         fmt.Sprintf("tv-%d", f.nextVideo),
		Title:      title,
		FolderID:   folderID,
		ExternalID: fmt.Sprintf("ext-%d", f.nextVideo),
	}
	v.PlayerURL = "https://target.test/play/" + v.ExternalID
	key := videoKey(folderID, title)
	f.videos[key] = append(f.videos[key], v)
	f.ingested = append(f.ingested, sourceURL)
	return &v, nil
}

func (f *fakeTarget) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTarget) createdNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.created))
	for i, folder := range f.created {
		names[i] = folder.Name
	}
	return names
}

// --- Factory ---

type fakeFactory struct {
	source    driven.SourceCatalog
	target    driven.TargetLibrary
	sourceErr error
	targetErr error
	calls     int
}

func (f *fakeFactory) NewSourceCatalog(domain.SourceSettings) (driven.SourceCatalog, error) {
	f.calls++
	if f.sourceErr != nil {
		return nil, f.sourceErr
	}
	return f.source, nil
}

func (f *fakeFactory) NewTargetLibrary(domain.TargetSettings) (driven.TargetLibrary, error) {
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	return f.target, nil
}

// --- Mapping store ---

// failingMappingStore fails the configured operations.
type failingMappingStore struct {
	driven.MappingStore
	getErr    error
	upsertErr error
}

func (f *failingMappingStore) Get(ctx context.Context, ref string) (*domain.VideoMapping, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MappingStore.Get(ctx, ref)
}

func (f *failingMappingStore) Upsert(ctx context.Context, m domain.VideoMapping) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.MappingStore.Upsert(ctx, m)
}

var errDiskFull = errors.New("disk full")

// --- Settings ---

type stubSettings struct {
	mu       sync.Mutex
	settings domain.Settings
	err      error
}

func (s *stubSettings) Get() (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	c := s.settings
	return &c, nil
}

func (s *stubSettings) Set(string, string) error { return nil }

func (s *stubSettings) Entries() ([]driving.SettingEntry, error) { return nil, nil }

func (s *stubSettings) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

func (s *stubSettings) setInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Schedule.Interval = d
}

// testSettings returns settings that pass validation.
func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Source.BaseURL = "https://api.test"
	s.Source.Token = "source-token"
	s.Target.BaseURL = "https://target.test"
	s.Target.APIKey = "target-key"
	return s
}

// --- Config watcher ---

type fakeWatcher struct {
	ch  chan struct{}
	err error
}

func (w *fakeWatcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.ch:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
