package driving

import "context"

// Scheduler runs catalog syncs on a fixed interval.
type Scheduler interface {
	// Start runs the scheduler loop until Stop is called or the
	// context is cancelled. It blocks.
	Start(ctx context.Context) error

	// Stop terminates the loop and waits for an in-flight sync to
	// finish. Safe to call more than once.
	Stop() error

	// Kick requests an immediate sync outside the regular interval.
	// Non-blocking; collapsed if a kick is already pending.
	Kick()
}
