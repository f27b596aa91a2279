package domain

import "time"

// RunStatus is the lifecycle state of a mirror run.
type RunStatus string

// Run states.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusRunning, RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s RunStatus) String() string {
	return string(s)
}

// SkipKind identifies what kind of entry a run skipped.
type SkipKind string

// Skip kinds.
const (
	SkipFolder SkipKind = "folder"
	SkipVideo  SkipKind = "video"
)

// Skip records an item the run could not mirror. Skips never fail a run.
type Skip struct {
	Kind   SkipKind `json:"kind"`
	Name   string   `json:"name"`
	Ref    string   `json:"ref"`
	Reason string   `json:"reason"`
}

// RunCounters are the running totals of a mirror run.
type RunCounters struct {
	FoldersVisited      int
	FoldersCreated      int
	VideosSeen          int
	VideosMatched       int
	VideosAlreadyMapped int
	VideosCreated       int
	VideosUnmatched     int
}

// RunReport is the outcome of one mirror run.
type RunReport struct {
	// ID is a UUID assigned when the run starts.
	ID string

	StartedAt time.Time
	EndedAt   time.Time
	Status    RunStatus

	RunCounters

	// Skips lists every folder or video left behind, in traversal order.
	Skips []Skip

	// Error is the fatal error message when Status is failed.
	Error string
}

// Duration returns how long the run took. Zero while running.
func (r *RunReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Writes returns the number of mapping rows the run wrote.
func (r *RunReport) Writes() int {
	return r.VideosMatched - r.VideosAlreadyMapped + r.VideosCreated
}
