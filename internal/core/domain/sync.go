package domain

import "time"

// SourceSyncCounts holds the reconciliation counters for one source.
// Per-file outcomes are independent, so the counters are a commutative
// sum regardless of fetch completion order.
type SourceSyncCounts struct {
	Added     int
	Updated   int
	Unchanged int
	Deleted   int
	Errors    int
}

// Total returns the number of workflows present after the pass.
func (c SourceSyncCounts) Total() int {
	return c.Added + c.Updated + c.Unchanged
}

// SyncResult is the aggregate outcome of a sync run, returned to the
// trigger surface for display and logging.
type SyncResult struct {
	SourceSyncCounts

	// Success is false if any source-level error occurred. File-level
	// errors only show up in the Errors counter.
	Success bool

	// Duration is the wall-clock time of the run.
	Duration time.Duration

	// Timestamp is when the run completed.
	Timestamp time.Time
}

// Merge folds one source's counters into the aggregate.
func (r *SyncResult) Merge(c SourceSyncCounts) {
	r.Added += c.Added
	r.Updated += c.Updated
	r.Unchanged += c.Unchanged
	r.Deleted += c.Deleted
	r.Errors += c.Errors
}
