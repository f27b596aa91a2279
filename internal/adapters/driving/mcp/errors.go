// Package mcp provides an MCP (Model Context Protocol) server adapter for vidmirror.
// It lets AI assistants look up Source-to-Target video mappings and inspect
// recent mirror runs.
package mcp

import "errors"

// ErrMissingMappingService is returned when the mapping service is not provided.
var ErrMissingMappingService = errors.New("mcp: mapping service is required")
