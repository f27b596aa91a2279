// Package services implements the driving port interfaces.
// Services contain the core mirror logic and orchestrate
// calls to driven ports (platform clients, stores and config).
//
// The mirror pass is split into three pieces: FolderResolver maps Source
// folders to Target folders, VideoMatcher reconciles one video against the
// mapping store and the Target library, and MirrorOrchestrator walks the
// Source hierarchy depth-first and drives both.
package services
