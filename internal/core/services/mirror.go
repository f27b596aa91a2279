package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// Ensure MirrorOrchestrator implements the interface.
var _ driving.MirrorService = (*MirrorOrchestrator)(nil)

// MirrorOrchestrator walks the Source hierarchy depth-first and mirrors every
// folder and video into the Target. Only one run may be active at a time.
type MirrorOrchestrator struct {
	settings driving.SettingsService
	factory  driven.PlatformFactory
	mappings driven.MappingStore
	runs     driven.RunStore
	newCache func() driven.FolderCache

	// Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	newID func() string

	// Status tracking
	mu     sync.RWMutex
	active *activeRun
}

// activeRun is the live state shared with Status.
type activeRun struct {
	report *domain.RunReport
	folder string
}

// NewMirrorOrchestrator creates a new mirror orchestrator.
// runs may be nil, in which case reports are returned but not kept.
// newCache creates the folder cache of each run.
func NewMirrorOrchestrator(
	settings driving.SettingsService,
	factory driven.PlatformFactory,
	mappings driven.MappingStore,
	runs driven.RunStore,
	newCache func() driven.FolderCache,
) *MirrorOrchestrator {
	return &MirrorOrchestrator{
		settings: settings,
		factory:  factory,
		mappings: mappings,
		runs:     runs,
		newCache: newCache,
		sleep:    sleepContext,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run performs one complete mirror pass.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *MirrorOrchestrator) Run(ctx context.Context, opts driving.MirrorOptions) (*domain.RunReport, error) {
	// 1. Claim the orchestrator
	report, err := o.begin()
	if err != nil {
		return nil, err
	}
	defer o.end()

	// 2. Load settings and apply per-run overrides
	settings, err := o.settings.Get()
	if err != nil {
		return o.finish(ctx, report, fmt.Errorf("load settings: %w", err))
	}
	if err := settings.Validate(); err != nil {
		return o.finish(ctx, report, fmt.Errorf("validate settings: %w", err))
	}
	if opts.ReadOnly {
		settings.Mirror.CreateMissingFolders = false
	}
	if opts.CreateVideos {
		settings.Mirror.CreateMissingVideos = true
	}

	// 3. Create platform adapters
	if o.factory == nil {
		return o.finish(ctx, report, errors.New("create platforms: platform factory not configured"))
	}
	source, err := o.factory.NewSourceCatalog(settings.Source)
	if err != nil {
		return o.finish(ctx, report, fmt.Errorf("create source catalog: %w", err))
	}
	defer source.Close()

	target, err := o.factory.NewTargetLibrary(settings.Target)
	if err != nil {
		return o.finish(ctx, report, fmt.Errorf("create target library: %w", err))
	}
	defer target.Close()

	o.saveRun(ctx, report)

	logger.Section("Mirror run " + report.ID)
	logger.Info("Mirroring %s into %s", source.RootURL(), settings.Target.BaseURL)
	if !settings.Mirror.CreateMissingFolders {
		logger.Info("Read-only mode: missing target folders are skipped")
	}

	// 4. Walk the hierarchy from the root
	w := &walker{
		o:        o,
		report:   report,
		source:   source,
		resolver: NewFolderResolver(target, o.newCache(), settings.Mirror.CreateMissingFolders),
		matcher: NewVideoMatcher(target, o.mappings, settings.Source.PlayerDomain,
			settings.Mirror.CreateMissingVideos),
		delay: settings.Mirror.InterItemDelay,
	}
	w.matcher.now = o.now

	err = w.walkFolders(ctx, source.RootURL(), "", nil, true)
	return o.finish(ctx, report, err)
}

// Status returns the live progress of the active run.
func (o *MirrorOrchestrator) Status() driving.MirrorStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.active == nil {
		return driving.MirrorStatus{}
	}
	return driving.MirrorStatus{
		Running:       true,
		RunID:         o.active.report.ID,
		StartedAt:     o.active.report.StartedAt,
		CurrentFolder: o.active.folder,
		Counters:      o.active.report.RunCounters,
		Skipped:       len(o.active.report.Skips),
	}
}

// LastRun returns the most recent recorded run.
func (o *MirrorOrchestrator) LastRun(ctx context.Context) (*domain.RunReport, error) {
	if o.runs == nil {
		return nil, domain.ErrNotFound
	}
	return o.runs.LastRun(ctx)
}

// History returns recent runs, newest first.
func (o *MirrorOrchestrator) History(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if o.runs == nil {
		return nil, nil
	}
	return o.runs.ListRuns(ctx, limit)
}

func (o *MirrorOrchestrator) begin() (*domain.RunReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		return nil, domain.ErrSyncInProgress
	}
	report := &domain.RunReport{
		ID:        o.newID(),
		StartedAt: o.now().UTC(),
		Status:    domain.RunStatusRunning,
	}
	o.active = &activeRun{report: report}
	return report, nil
}

func (o *MirrorOrchestrator) end() {
	o.mu.Lock()
	o.active = nil
	o.mu.Unlock()
}

// finish stamps the outcome on the report, records it and returns it with err.
func (o *MirrorOrchestrator) finish(ctx context.Context, report *domain.RunReport, err error) (*domain.RunReport, error) {
	o.mu.Lock()
	report.EndedAt = o.now().UTC()
	if err != nil {
		report.Status = domain.RunStatusFailed
		report.Error = err.Error()
	} else {
		report.Status = domain.RunStatusSucceeded
	}
	o.mu.Unlock()

	// The run may have been cancelled; history is still written.
	o.saveRun(context.WithoutCancel(ctx), report)

	if err != nil {
		logger.Error("Mirror run %s failed after %s: %v", report.ID, report.Duration(), err)
		return report, err
	}
	logger.Info("Mirror run complete: %d folders, %d videos seen, %d matched (%d already mapped), "+
		"%d created, %d unmatched, %d skipped",
		report.FoldersVisited, report.VideosSeen, report.VideosMatched, report.VideosAlreadyMapped,
		report.VideosCreated, report.VideosUnmatched, len(report.Skips))
	return report, nil
}

func (o *MirrorOrchestrator) saveRun(ctx context.Context, report *domain.RunReport) {
	if o.runs == nil {
		return
	}
	o.mu.RLock()
	snapshot := *report
	snapshot.Skips = append([]domain.Skip(nil), report.Skips...)
	o.mu.RUnlock()

	if err := o.runs.SaveRun(ctx, &snapshot); err != nil {
		logger.Warn("Failed to save run %s: %v", report.ID, err)
	}
}

// ==================== Traversal ====================

// walker holds the collaborators of one run. Traversal position is passed
// through arguments, never stored here.
type walker struct {
	o        *MirrorOrchestrator
	report   *domain.RunReport
	source   driven.SourceCatalog
	resolver *FolderResolver
	matcher  *VideoMatcher
	delay    time.Duration
	started  bool
}

// walkFolders visits every folder listed at url, one page at a time.
// A listing failure at the root aborts the run; deeper failures skip the
// remainder of that listing.
func (w *walker) walkFolders(
	ctx context.Context,
	url, parentName string,
	parentTargetID *string,
	root bool,
) error {
	for page, err := range w.source.Folders(ctx, url) {
		if err != nil {
			if root {
				return fmt.Errorf("list root folders: %w", err)
			}
			if fatal(ctx, err) {
				return fmt.Errorf("list folders of %q: %w", parentName, err)
			}
			w.skip(domain.SkipFolder, parentName, url, fmt.Errorf("list child folders: %w", err))
			return nil
		}

		for _, folder := range page {
			if err := w.visitFolder(ctx, folder, parentTargetID); err != nil {
				return err
			}
		}
	}
	return nil
}

// visitFolder resolves one folder, reconciles its videos and descends into
// its children.
func (w *walker) visitFolder(ctx context.Context, folder domain.SourceFolder, parentTargetID *string) error {
	if err := w.pause(ctx); err != nil {
		return err
	}
	w.update(func(a *activeRun) {
		a.folder = folder.Name
		a.report.FoldersVisited++
	})
	logger.Debug("Visiting folder %q (%s)", folder.Name, folder.URI)

	targetID, err := w.resolver.Resolve(ctx, folder.URI, folder.Name, parentTargetID)
	w.update(func(a *activeRun) {
		a.report.FoldersCreated = w.resolver.Created()
	})
	if err != nil {
		if fatal(ctx, err) {
			return fmt.Errorf("resolve folder %q: %w", folder.Name, err)
		}
		w.skip(domain.SkipFolder, folder.Name, folder.URI, err)
		return nil
	}

	if folder.VideosURI != "" {
		if err := w.walkVideos(ctx, folder, targetID); err != nil {
			return err
		}
	}

	if folder.ItemsURI != "" {
		return w.walkFolders(ctx, folder.ItemsURI, folder.Name, &targetID, false)
	}
	return nil
}

// walkVideos reconciles the videos of a folder in Source order.
func (w *walker) walkVideos(ctx context.Context, folder domain.SourceFolder, targetID string) error {
	for page, err := range w.source.Videos(ctx, folder.VideosURI) {
		if err != nil {
			if fatal(ctx, err) {
				return fmt.Errorf("list videos of %q: %w", folder.Name, err)
			}
			w.skip(domain.SkipFolder, folder.Name, folder.VideosURI, fmt.Errorf("list videos: %w", err))
			return nil
		}

		for _, video := range page {
			if err := w.pause(ctx); err != nil {
				return err
			}
			w.update(func(a *activeRun) { a.report.VideosSeen++ })

			result, err := w.matcher.Reconcile(ctx, video, targetID)
			if err != nil {
				if fatal(ctx, err) {
					return fmt.Errorf("reconcile %q: %w", video.Name, err)
				}
				w.skip(domain.SkipVideo, video.Name, video.URI, err)
				continue
			}

			w.update(func(a *activeRun) {
				switch {
				case result.Created:
					a.report.VideosCreated++
				case result.Matched:
					a.report.VideosMatched++
					if result.AlreadyMapped {
						a.report.VideosAlreadyMapped++
					}
				default:
					a.report.VideosUnmatched++
				}
			})
		}
	}
	return nil
}

// pause waits the inter-item delay before every item but the first.
func (w *walker) pause(ctx context.Context) error {
	if !w.started {
		w.started = true
		return ctx.Err()
	}
	return w.o.sleep(ctx, w.delay)
}

func (w *walker) update(fn func(a *activeRun)) {
	w.o.mu.Lock()
	defer w.o.mu.Unlock()
	if w.o.active != nil {
		fn(w.o.active)
	}
}

func (w *walker) skip(kind domain.SkipKind, name, ref string, err error) {
	logger.Warn("Skipping %s %q: %v", kind, name, err)
	w.update(func(a *activeRun) {
		a.report.Skips = append(a.report.Skips, domain.Skip{
			Kind:   kind,
			Name:   name,
			Ref:    ref,
			Reason: err.Error(),
		})
	})
}

// fatal reports whether err must abort the run rather than skip one item.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, domain.ErrMappingStore) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
