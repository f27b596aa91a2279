package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// countingMirror counts runs and optionally blocks each run until release
// is closed.
type countingMirror struct {
	runs    atomic.Int32
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	err     error
}

func (m *countingMirror) Run(ctx context.Context, _ driving.MirrorOptions) (*domain.RunReport, error) {
	m.runs.Add(1)
	if m.entered != nil {
		m.once.Do(func() { close(m.entered) })
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
		}
	}
	if m.err != nil {
		return &domain.RunReport{ID: "run"}, m.err
	}
	return &domain.RunReport{ID: "run", Status: domain.RunStatusSucceeded}, nil
}

func (m *countingMirror) Status() driving.MirrorStatus { return driving.MirrorStatus{} }

func (m *countingMirror) LastRun(context.Context) (*domain.RunReport, error) {
	return nil, domain.ErrNotFound
}

func (m *countingMirror) History(context.Context, int) ([]domain.RunReport, error) {
	return nil, nil
}

func schedulerSettings(interval time.Duration) *stubSettings {
	s := &stubSettings{settings: testSettings()}
	s.settings.Schedule.Interval = interval
	return s
}

func TestScheduler_RunsImmediatelyAndOnInterval(t *testing.T) {
	mirror := &countingMirror{}
	scheduler := NewScheduler(mirror, schedulerSettings(10*time.Millisecond), nil, driving.MirrorOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- scheduler.Start(ctx) }()

	assert.Eventually(t, func() bool { return mirror.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestScheduler_SkipsTickWhileBusy(t *testing.T) {
	mirror := &countingMirror{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	scheduler := NewScheduler(mirror, schedulerSettings(5*time.Millisecond), nil, driving.MirrorOptions{})

	errCh := make(chan error, 1)
	go func() { errCh <- scheduler.Start(context.Background()) }()

	<-mirror.entered
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), mirror.runs.Load())

	close(mirror.release)
	require.NoError(t, scheduler.Stop())
	assert.NoError(t, <-errCh)
}

func TestScheduler_StopWaitsForActiveRun(t *testing.T) {
	mirror := &countingMirror{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	scheduler := NewScheduler(mirror, schedulerSettings(time.Hour), nil, driving.MirrorOptions{})

	go func() { _ = scheduler.Start(context.Background()) }()
	<-mirror.entered

	stopped := make(chan struct{})
	go func() {
		_ = scheduler.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was active")
	case <-time.After(30 * time.Millisecond):
	}

	close(mirror.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the run finished")
	}
}

func TestScheduler_PicksUpIntervalChange(t *testing.T) {
	mirror := &countingMirror{}
	settings := schedulerSettings(time.Hour)
	watcher := &fakeWatcher{ch: make(chan struct{})}
	scheduler := NewScheduler(mirror, settings, watcher, driving.MirrorOptions{})

	go func() { _ = scheduler.Start(context.Background()) }()
	defer func() { _ = scheduler.Stop() }()

	require.Eventually(t, func() bool { return mirror.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	settings.setInterval(10 * time.Millisecond)
	watcher.ch <- struct{}{}

	assert.Eventually(t, func() bool { return mirror.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_WatchErrorDoesNotStopScheduling(t *testing.T) {
	mirror := &countingMirror{}
	watcher := &fakeWatcher{err: errors.New("too many open files")}
	scheduler := NewScheduler(mirror, schedulerSettings(10*time.Millisecond), watcher, driving.MirrorOptions{})

	go func() { _ = scheduler.Start(context.Background()) }()
	defer func() { _ = scheduler.Stop() }()

	assert.Eventually(t, func() bool { return mirror.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_RunFailuresKeepScheduling(t *testing.T) {
	mirror := &countingMirror{err: domain.ErrSyncInProgress}
	scheduler := NewScheduler(mirror, schedulerSettings(10*time.Millisecond), nil, driving.MirrorOptions{})

	go func() { _ = scheduler.Start(context.Background()) }()
	defer func() { _ = scheduler.Stop() }()

	assert.Eventually(t, func() bool { return mirror.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_StartTwiceReturnsImmediately(t *testing.T) {
	mirror := &countingMirror{}
	scheduler := NewScheduler(mirror, schedulerSettings(time.Hour), nil, driving.MirrorOptions{})

	go func() { _ = scheduler.Start(context.Background()) }()
	require.Eventually(t, func() bool { return mirror.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	assert.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_StopWhenNotRunning(t *testing.T) {
	scheduler := NewScheduler(&countingMirror{}, schedulerSettings(time.Hour), nil, driving.MirrorOptions{})

	assert.NoError(t, scheduler.Stop())
}

func TestScheduler_IntervalFallsBackToDefault(t *testing.T) {
	settings := schedulerSettings(0)
	scheduler := NewScheduler(&countingMirror{}, settings, nil, driving.MirrorOptions{})
	assert.Equal(t, domain.DefaultScheduleInterval, scheduler.interval())

	settings.err = domain.ErrInvalidInput
	assert.Equal(t, domain.DefaultScheduleInterval, scheduler.interval())
}
