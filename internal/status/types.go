package status

import "time"

// SyncPhase represents the current phase of a synchronization job
type SyncPhase string

const (
	// SyncPhaseSyncing means a run is in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last run completed
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last run failed, or no run happened yet
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the state of one configured synchronization job
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the status
	Message string `json:"message,omitempty"`

	// RunID identifies the current or last run
	RunID string `json:"runId,omitempty"`

	// LastAttempt is the start time of the last run
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of failed runs since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the completion time of the last successful run
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// SyncSchedule is the configured interval (e.g. "1h")
	SyncSchedule string `json:"syncSchedule,omitempty"`

	// Counts holds the action counts of the last run, successful or not
	Counts Counts `json:"counts"`

	// Progress is only populated while a run is in progress
	Progress *Progress `json:"progress,omitempty"`
}

// Counts mirrors the result of a run.
type Counts struct {
	Added    int64  `json:"added"`
	Updated  int64  `json:"updated"`
	Deleted  int64  `json:"deleted"`
	Skipped  int64  `json:"skipped"`
	Failed   int64  `json:"failed"`
	Invalid  int64  `json:"invalid"`
	Duration string `json:"duration,omitempty"`
}

// Progress of a running job.
type Progress struct {
	Done    int64   `json:"done"`
	Total   int64   `json:"total"`
	Percent float64 `json:"percent"`
}
