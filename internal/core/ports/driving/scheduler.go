package driving

import "context"

// Scheduler runs the mirror periodically.
type Scheduler interface {
	// Start begins running scheduled mirror passes.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler and waits for an active run.
	Stop() error
}
