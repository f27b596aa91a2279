// Package messages defines Bubbletea message types for the progress TUI.
package messages

import (
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// StatusPolled carries a snapshot of the live run counters.
type StatusPolled struct {
	Status driving.MirrorStatus
}

// RunFinished is sent when the mirror run returns.
type RunFinished struct {
	Report *domain.RunReport
	Err    error
}
