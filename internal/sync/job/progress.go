package job

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// progressLogSteps is the number of progress log lines per run.
const progressLogSteps = 10

// Progress tracks a run's advancement. The total is the iterator size
// estimate and may be exceeded; Snapshot is safe to call from any goroutine.
type Progress struct {
	total    atomic.Int64
	done     atomic.Int64
	lastStep atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of a Progress.
type ProgressSnapshot struct {
	Total   int64   `json:"total"`
	Done    int64   `json:"done"`
	Percent float64 `json:"percent"`
}

func newProgress() *Progress {
	return &Progress{}
}

func (p *Progress) start(total int64) {
	p.total.Store(max(total, 0))
	p.done.Store(0)
	p.lastStep.Store(0)
}

func (p *Progress) step(ctx context.Context, logger *slog.Logger) {
	done := p.done.Add(1)
	total := p.total.Load()
	if total <= 0 {
		return
	}

	step := min(done*progressLogSteps/total, progressLogSteps)
	if last := p.lastStep.Load(); step > last && p.lastStep.CompareAndSwap(last, step) {
		logger.InfoContext(ctx, "Synchronization progress",
			"done", done, "total", total, "percent", step*100/progressLogSteps)
	}
}

// Snapshot returns the current progress. Percent is capped at 100.
func (p *Progress) Snapshot() ProgressSnapshot {
	s := ProgressSnapshot{Total: p.total.Load(), Done: p.done.Load()}
	switch {
	case s.Total > 0:
		s.Percent = min(float64(s.Done)*100/float64(s.Total), 100)
	case s.Done > 0:
		s.Percent = 100
	}
	return s
}
