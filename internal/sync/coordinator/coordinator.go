package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/wiki-index-sync/internal/status"
	"github.com/stacklok/wiki-index-sync/internal/sync/job"
)

const (
	// defaultPollingInterval is how often the coordinator looks for due jobs
	defaultPollingInterval = time.Minute
	// defaultPollingJitter is the maximum offset applied to each polling interval
	defaultPollingJitter = 10 * time.Second
)

//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks -source=coordinator.go Runner

// Runner executes synchronization runs. *job.Job implements it.
type Runner interface {
	Name() string
	Run(ctx context.Context, req job.Request) (*job.Result, error)
	Progress() *job.Progress
}

// Schedule binds a Runner to the request it runs and its interval.
type Schedule struct {
	Runner   Runner
	Request  job.Request
	Interval time.Duration
}

// Coordinator runs scheduled jobs in the background.
type Coordinator interface {
	// Start runs the scheduling loop. It blocks until ctx is cancelled or
	// Stop is called.
	Start(ctx context.Context) error

	// Stop cancels the loop and any running job, and waits for Start to return.
	Stop() error

	// Statuses returns the status of every job, with live progress for
	// running ones.
	Statuses(ctx context.Context) map[string]*status.SyncStatus
}

type defaultCoordinator struct {
	tracker   *status.Tracker
	schedules []Schedule

	pollingInterval time.Duration
	pollingJitter   time.Duration
	now             func() time.Time

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option configures the coordinator
type Option func(*defaultCoordinator)

// WithPollingInterval sets the base polling interval and its jitter
func WithPollingInterval(interval, jitter time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.pollingInterval = interval
		c.pollingJitter = jitter
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		c.now = now
	}
}

// New creates a coordinator for schedules. Job names must be unique.
func New(tracker *status.Tracker, schedules []Schedule, opts ...Option) (Coordinator, error) {
	seen := make(map[string]struct{}, len(schedules))
	for _, s := range schedules {
		if s.Runner == nil {
			return nil, errors.New("schedule has no runner")
		}
		name := s.Runner.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate job name %q", name)
		}
		seen[name] = struct{}{}
	}

	c := &defaultCoordinator{
		tracker:         tracker,
		schedules:       schedules,
		pollingInterval: defaultPollingInterval,
		pollingJitter:   defaultPollingJitter,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background sync coordinator", "job_count", len(c.schedules))

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Background sync coordinator shut down")
	}()

	intervals := make(map[string]time.Duration, len(c.schedules))
	for _, s := range c.schedules {
		intervals[s.Runner.Name()] = s.Interval
	}
	c.tracker.Initialize(coordCtx, intervals)

	c.processDueJobs(coordCtx)

	timer := time.NewTimer(jittered(c.pollingInterval, c.pollingJitter))
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			c.processDueJobs(coordCtx)
			// The next poll is measured from the end of this one.
			timer.Reset(jittered(c.pollingInterval, c.pollingJitter))
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	slog.Info("Stopping sync coordinator")
	cancel()
	<-c.done
	return nil
}

// Statuses overlays the live progress of running jobs on the tracked status
func (c *defaultCoordinator) Statuses(ctx context.Context) map[string]*status.SyncStatus {
	statuses := c.tracker.List(ctx)
	for _, s := range c.schedules {
		st, ok := statuses[s.Runner.Name()]
		if !ok || st.Phase != status.SyncPhaseSyncing {
			continue
		}
		snap := s.Runner.Progress().Snapshot()
		st.Progress = &status.Progress{Done: snap.Done, Total: snap.Total, Percent: snap.Percent}
	}
	return statuses
}

// processDueJobs runs each due job in order
func (c *defaultCoordinator) processDueJobs(ctx context.Context) {
	for _, s := range c.schedules {
		if ctx.Err() != nil {
			return
		}
		c.checkJobSync(ctx, s)
	}
}

// checkJobSync claims the job by moving it to Syncing, then runs it
func (c *defaultCoordinator) checkJobSync(ctx context.Context, s Schedule) {
	name := s.Runner.Name()
	runID := uuid.NewString()
	startTime := c.now()

	claimed, err := c.tracker.UpdateAtomically(ctx, name, func(st *status.SyncStatus) bool {
		if !isSyncDue(st, s.Interval, startTime) {
			return false
		}
		st.Phase = status.SyncPhaseSyncing
		st.Message = "Synchronization in progress"
		st.RunID = runID
		st.LastAttempt = &startTime
		return true
	})
	if err != nil {
		slog.ErrorContext(ctx, "Error claiming sync job", "job", name, "error", err)
		return
	}
	if !claimed {
		slog.DebugContext(ctx, "Job does not need sync", "job", name)
		return
	}

	c.performJobSync(ctx, s, runID, startTime)
}

// performJobSync runs the job and records the final status
func (c *defaultCoordinator) performJobSync(ctx context.Context, s Schedule, runID string, startTime time.Time) {
	name := s.Runner.Name()

	// Always leave the job out of Syncing, even if Run panics.
	var (
		result *job.Result
		runErr = errors.New("unexpected failure")
	)
	defer func() {
		finished := c.now()
		_, err := c.tracker.UpdateAtomically(context.WithoutCancel(ctx), name, func(st *status.SyncStatus) bool {
			st.Progress = nil
			if result != nil {
				st.Counts = status.Counts{
					Added:    result.Added,
					Updated:  result.Updated,
					Deleted:  result.Deleted,
					Skipped:  result.Skipped,
					Failed:   result.Failed,
					Invalid:  result.Invalid,
					Duration: result.Duration.String(),
				}
			}
			if runErr != nil {
				st.Phase = status.SyncPhaseFailed
				st.Message = runErr.Error()
				st.AttemptCount++
				return true
			}
			st.Phase = status.SyncPhaseComplete
			st.Message = result.Summary()
			st.LastSyncTime = &finished
			st.AttemptCount = 0
			return true
		})
		if err != nil {
			slog.ErrorContext(ctx, "Error updating sync status", "job", name, "run_id", runID, "error", err)
		}
	}()

	slog.InfoContext(ctx, "Starting scheduled synchronization", "job", name, "run_id", runID)
	result, runErr = s.Runner.Run(ctx, s.Request)
	if result == nil {
		result = &job.Result{}
	}
	if runErr != nil {
		slog.ErrorContext(ctx, "Scheduled synchronization failed",
			"job", name, "run_id", runID, "error", runErr, "duration", c.now().Sub(startTime))
		return
	}
	slog.InfoContext(ctx, "Scheduled synchronization completed",
		"job", name, "run_id", runID, "summary", result.Summary())
}
