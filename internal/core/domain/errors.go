package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a mirror run is already active.
	ErrSyncInProgress = errors.New("mirror run in progress")

	// ErrFormat indicates a Source reference does not have the expected shape.
	// Format errors are permanent and never retried.
	ErrFormat = errors.New("unexpected reference format")

	// ErrMappingStore indicates the mapping store failed to read or write.
	// A run cannot continue without its store, so this error is fatal.
	ErrMappingStore = errors.New("mapping store failure")

	// Connector Errors.

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthRequired indicates a platform credential is not configured.
	ErrAuthRequired = errors.New("authentication required")
)

// FormatError describes a reference that could not be parsed.
type FormatError struct {
	Kind  string
	Value string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrFormat, e.Kind, e.Value)
}

// Unwrap allows errors.Is(err, ErrFormat).
func (e *FormatError) Unwrap() error {
	return ErrFormat
}
