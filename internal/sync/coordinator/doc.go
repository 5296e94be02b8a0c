// Package coordinator runs the configured synchronization jobs in the
// background.
//
// The coordinator wakes up on a jittered polling interval and runs, one at a
// time and in configuration order, every job whose own interval has elapsed
// since its last attempt. A job whose last run failed (or that never ran) is
// due on the next poll. Each run gets a fresh run id.
//
// Status is kept in a status.Tracker and written through to its persistence
// at each phase transition:
//
//	Failed/Complete -> Syncing -> Complete
//	                           -> Failed
//
// A job already in Syncing is never started again, so a slow run makes the
// following polls skip it instead of queueing behind it. Stop cancels the
// running job through its context and waits for the loop to exit.
package coordinator
