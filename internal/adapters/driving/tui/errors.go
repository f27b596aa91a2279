package tui

import "errors"

// ErrMissingMirrorService is returned when the mirror service is not provided.
var ErrMissingMirrorService = errors.New("tui: mirror service is required")
