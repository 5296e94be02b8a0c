package coordinator

import (
	"math/rand/v2"
	"time"

	"github.com/stacklok/wiki-index-sync/internal/status"
)

// isSyncDue reports whether a job with the given interval should run now.
// A job that never completed, or whose last run failed, is always due.
func isSyncDue(syncStatus *status.SyncStatus, interval time.Duration, now time.Time) bool {
	if syncStatus == nil {
		return true
	}
	switch syncStatus.Phase {
	case status.SyncPhaseSyncing:
		return false
	case status.SyncPhaseComplete:
	default:
		return true
	}

	if syncStatus.LastAttempt == nil {
		return true
	}
	next := syncStatus.LastAttempt.Add(interval)
	return !now.Before(next)
}

// jittered returns base offset by a random duration in [-jitter, +jitter).
func jittered(base, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: polling jitter does not need cryptographic randomness
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return max(base+offset, time.Second)
}
