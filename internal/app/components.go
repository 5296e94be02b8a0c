package app

import (
	"context"
	"fmt"

	"github.com/stacklok/wiki-index-sync/internal/config"
	"github.com/stacklok/wiki-index-sync/internal/index/sqlite"
	"github.com/stacklok/wiki-index-sync/internal/sync/coordinator"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
	"github.com/stacklok/wiki-index-sync/internal/sync/job"
	"github.com/stacklok/wiki-index-sync/internal/telemetry"
)

const tracerName = "github.com/stacklok/wiki-index-sync/sync"

// DocumentStore is the authoritative side of a synchronization.
// *postgres.Store implements it.
type DocumentStore interface {
	iterator.StoreQuerier
	sqlite.DocumentLoader
	Ping(ctx context.Context) error
}

// AppComponents groups the long-lived parts of the application
//
//nolint:revive // This name is fine
type AppComponents struct {
	Store       DocumentStore
	Index       *sqlite.Index
	Jobs        []*job.Job
	Coordinator coordinator.Coordinator
	Telemetry   *telemetry.Telemetry
}

// NewJob builds a synchronization job over store and index. The IndexWriter
// loads document bodies from store, and the index doubles as the invalid
// entry cleaner.
func NewJob(
	name string,
	cfg *config.Config,
	store DocumentStore,
	index *sqlite.Index,
	tel *telemetry.Telemetry,
) (*job.Job, error) {
	if tel == nil {
		tel = telemetry.NewNoOp()
	}
	metrics, err := telemetry.NewSyncMetrics(tel.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	return job.New(store, index, sqlite.NewWriter(index, store),
		job.WithName(name),
		job.WithPageSizes(cfg.GetStorePageSize(), cfg.GetIndexPageSize()),
		job.WithInvalidCleaner(index),
		job.WithMetrics(metrics),
		job.WithTracer(tel.TracerProvider().Tracer(tracerName)),
	), nil
}

// RequestFor translates a configured job into a run request.
func RequestFor(jc *config.JobConfig) (job.Request, error) {
	root, err := jc.GetRoot()
	if err != nil {
		return job.Request{}, fmt.Errorf("invalid root for job %s: %w", jc.Name, err)
	}
	return job.Request{
		Root:          root,
		Overwrite:     jc.Overwrite,
		RemoveMissing: jc.GetRemoveMissing(),
		CleanInvalid:  jc.CleanInvalid,
	}, nil
}

// buildSchedules creates one job and schedule per configured job
func buildSchedules(
	cfg *config.Config,
	store DocumentStore,
	index *sqlite.Index,
	tel *telemetry.Telemetry,
) ([]*job.Job, []coordinator.Schedule, error) {
	jobs := make([]*job.Job, 0, len(cfg.Sync.Jobs))
	schedules := make([]coordinator.Schedule, 0, len(cfg.Sync.Jobs))
	for i := range cfg.Sync.Jobs {
		jc := &cfg.Sync.Jobs[i]
		req, err := RequestFor(jc)
		if err != nil {
			return nil, nil, err
		}
		j, err := NewJob(jc.Name, cfg, store, index, tel)
		if err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, j)
		schedules = append(schedules, coordinator.Schedule{
			Runner:   j,
			Request:  req,
			Interval: jc.GetInterval(),
		})
	}
	return jobs, schedules, nil
}
