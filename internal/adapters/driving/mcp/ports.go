package mcp

import (
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Mapping answers mapping lookups.
	Mapping driving.MappingService

	// Mirror provides run history. Optional.
	Mirror driving.MirrorService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Mapping == nil {
		return ErrMissingMappingService
	}
	return nil
}
