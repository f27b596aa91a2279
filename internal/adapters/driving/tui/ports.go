// Package tui provides a live progress view for mirror runs.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Mirror runs the mirror and reports live progress.
	Mirror driving.MirrorService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Mirror == nil {
		return ErrMissingMirrorService
	}
	return nil
}
