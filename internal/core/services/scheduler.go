package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs the mirror on a fixed interval. A tick that arrives while a
// run is still active is skipped. When a ConfigWatcher is given the interval
// is re-read after every config change.
type Scheduler struct {
	mirror   driving.MirrorService
	settings driving.SettingsService
	watcher  driven.ConfigWatcher
	opts     driving.MirrorOptions

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
	busy    atomic.Bool
}

// NewScheduler creates a scheduler. watcher may be nil.
func NewScheduler(
	mirror driving.MirrorService,
	settings driving.SettingsService,
	watcher driven.ConfigWatcher,
	opts driving.MirrorOptions,
) *Scheduler {
	return &Scheduler{
		mirror:   mirror,
		settings: settings,
		watcher:  watcher,
		opts:     opts,
	}
}

// Start runs the mirror immediately and then on every interval.
// This method blocks until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	err := s.run(ctx, stopCh)
	close(doneCh)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return err
}

// Stop gracefully shuts down the scheduler and waits for an active run.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	defer s.wg.Wait()

	interval := s.interval()
	logger.Info("Scheduler started, mirroring every %s", interval)

	// The watcher lives only as long as the loop
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	var changes <-chan struct{}
	if s.watcher != nil {
		ch, err := s.watcher.Watch(watchCtx)
		if err != nil {
			logger.Warn("scheduler: config changes will not be picked up: %v", err)
		} else {
			changes = ch
		}
	}

	s.trigger(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.trigger(ctx)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if next := s.interval(); next != interval {
				logger.Info("Scheduler interval changed from %s to %s", interval, next)
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// trigger starts a mirror run unless one is already active.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		logger.Info("Previous mirror run still active, skipping this tick")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)

		report, err := s.mirror.Run(ctx, s.opts)
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			logger.Info("Mirror run already in progress, skipping this tick")
		case err != nil:
			logger.Error("Scheduled mirror run failed: %v", err)
		default:
			logger.Info("Scheduled mirror run %s finished in %s with %d skips",
				report.ID, report.Duration(), len(report.Skips))
		}
	}()
}

// interval reads the configured interval, falling back to the default.
func (s *Scheduler) interval() time.Duration {
	settings, err := s.settings.Get()
	if err != nil || settings.Schedule.Interval <= 0 {
		if err != nil {
			logger.Warn("scheduler: %v, using %s", err, domain.DefaultScheduleInterval)
		}
		return domain.DefaultScheduleInterval
	}
	return settings.Schedule.Interval
}
