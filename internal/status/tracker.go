package status

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tracker caches job statuses in memory and writes every change through to
// a StatusPersistence. It assumes a single process owns the status files.
type Tracker struct {
	persistence StatusPersistence

	mu       sync.RWMutex
	statuses map[string]*SyncStatus
}

// NewTracker creates a Tracker over persistence.
func NewTracker(persistence StatusPersistence) *Tracker {
	return &Tracker{
		persistence: persistence,
		statuses:    make(map[string]*SyncStatus),
	}
}

// Initialize loads the status of each job, creating a default one for jobs
// that never ran. A job left in Syncing by a previous process is reset to
// Failed so it runs again.
func (t *Tracker) Initialize(ctx context.Context, jobs map[string]time.Duration) {
	for name, interval := range jobs {
		t.loadOrInitialize(ctx, name, interval)
	}
}

func (t *Tracker) loadOrInitialize(ctx context.Context, name string, interval time.Duration) {
	logger := slog.With("job", name)

	syncStatus, err := t.persistence.LoadStatus(ctx, name)
	if err != nil {
		logger.Warn("Failed to load sync status, initializing with defaults", "error", err)
		syncStatus = &SyncStatus{}
	}

	switch {
	case syncStatus.Phase == "" && syncStatus.LastSyncTime == nil:
		logger.Info("No previous sync status found, initializing with defaults")
		syncStatus.Phase = SyncPhaseFailed
		syncStatus.Message = "No previous sync status found"
	case syncStatus.Phase == SyncPhaseSyncing:
		logger.Warn("Previous run was interrupted, resetting to Failed")
		syncStatus.Phase = SyncPhaseFailed
		syncStatus.Message = "Previous run was interrupted"
	}
	syncStatus.SyncSchedule = interval.String()
	syncStatus.Progress = nil

	if err := t.persistence.SaveStatus(ctx, name, syncStatus); err != nil {
		logger.Warn("Failed to persist initial sync status", "error", err)
	}

	if syncStatus.LastSyncTime != nil {
		logger.Info("Loaded sync status",
			"phase", syncStatus.Phase,
			"last_sync", syncStatus.LastSyncTime.Format(time.RFC3339))
	}

	t.mu.Lock()
	t.statuses[name] = syncStatus
	t.mu.Unlock()
}

// List returns a copy of every tracked status.
func (t *Tracker) List(_ context.Context) map[string]*SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]*SyncStatus, len(t.statuses))
	for name, s := range t.statuses {
		result[name] = s.clone()
	}
	return result
}

// Get returns a copy of a job's status, or nil when the job is unknown.
func (t *Tracker) Get(_ context.Context, name string) *SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.statuses[name]
	if !ok {
		return nil
	}
	return s.clone()
}

// Update replaces a job's status.
func (t *Tracker) Update(ctx context.Context, name string, syncStatus *SyncStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.persistence.SaveStatus(ctx, name, syncStatus); err != nil {
		return err
	}
	t.statuses[name] = syncStatus.clone()
	return nil
}

// UpdateAtomically applies fn to a job's status under the lock and saves
// the result when fn reports a change.
func (t *Tracker) UpdateAtomically(ctx context.Context, name string, fn func(*SyncStatus) bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.statuses[name]
	if !ok {
		return false, fmt.Errorf("sync status for job %s not found", name)
	}
	updated := current.clone()
	if !fn(updated) {
		return false, nil
	}
	if err := t.persistence.SaveStatus(ctx, name, updated); err != nil {
		return false, err
	}
	t.statuses[name] = updated
	return true, nil
}

func (s *SyncStatus) clone() *SyncStatus {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastAttempt != nil {
		v := *s.LastAttempt
		c.LastAttempt = &v
	}
	if s.LastSyncTime != nil {
		v := *s.LastSyncTime
		c.LastSyncTime = &v
	}
	if s.Progress != nil {
		v := *s.Progress
		c.Progress = &v
	}
	return &c
}
