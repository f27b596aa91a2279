package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

func TestScheduleCmd_ErrorsWithoutScheduler(t *testing.T) {
	defer withServices(nil)()

	_, err := executeCommand("schedule")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

func TestScheduleCmd_StopsOnCancel(t *testing.T) {
	scheduler := &mockScheduler{startErr: context.Canceled}
	var gotOpts driving.MirrorOptions
	defer withServices(&Services{NewScheduler: func(opts driving.MirrorOptions) driving.Scheduler {
		gotOpts = opts
		return scheduler
	}})()

	out, err := executeCommand("schedule", "--read-only")

	require.NoError(t, err)
	assert.True(t, scheduler.started)
	assert.True(t, scheduler.stopped)
	assert.True(t, gotOpts.ReadOnly)
	assert.Contains(t, out, "Scheduler stopped.")
}

func TestScheduleCmd_PropagatesFailure(t *testing.T) {
	scheduler := &mockScheduler{startErr: errors.New("boom")}
	defer withServices(&Services{NewScheduler: func(driving.MirrorOptions) driving.Scheduler {
		return scheduler
	}})()

	_, err := executeCommand("schedule")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler failed: boom")
	assert.True(t, scheduler.stopped)
}
