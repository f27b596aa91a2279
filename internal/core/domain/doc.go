// Package domain defines the core business entities for vidmirror.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceFolder, SourceVideo: entries read from the Source platform
//   - TargetFolder, TargetVideo: entries read from or created on the Target
//   - VideoMapping: the persisted Source to Target identity of a video
//   - FolderMapping: the run-scoped Source to Target identity of a folder
//   - RunReport: the outcome of a single mirror run
//   - Settings: application configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
