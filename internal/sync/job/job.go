// Package job drives index synchronization runs.
//
// A run either rebuilds the index from the store (overwrite) or walks the
// diff of the index against the store and applies each action through an
// IndexWriter. Errors applying a single key are counted and logged; errors
// reading either side abort the run.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/wiki-index-sync/internal/otel"
	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
	"github.com/stacklok/wiki-index-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_index_writer.go -package=mocks -source=job.go IndexWriter,InvalidCleaner

// IndexWriter applies mutations to the search index.
type IndexWriter interface {
	// Index loads the document at key from the store and indexes it. With
	// recursive every locale of the document is indexed.
	Index(ctx context.Context, key reference.Key, recursive bool) error
	// Delete removes key from the index. With recursive every locale of the
	// document is removed.
	Delete(ctx context.Context, key reference.Key, recursive bool) error
}

// InvalidCleaner removes index entries that cannot be diffed.
type InvalidCleaner interface {
	CleanInvalid(ctx context.Context, scope reference.Scope) (int64, error)
}

// Request describes one run.
type Request struct {
	Root          reference.Scope
	Overwrite     bool
	RemoveMissing bool
	CleanInvalid  bool
	// DryRun computes the actions without writing to the index.
	DryRun bool
}

// DefaultRequest synchronizes everything and removes missing documents.
func DefaultRequest() Request {
	return Request{RemoveMissing: true}
}

// Result holds the counts of a run. Counts are per emitted action; Failed
// counts the actions whose application failed.
type Result struct {
	Added    int64         `json:"added"`
	Updated  int64         `json:"updated"`
	Deleted  int64         `json:"deleted"`
	Skipped  int64         `json:"skipped"`
	Failed   int64         `json:"failed"`
	Invalid  int64         `json:"invalid"`
	Duration time.Duration `json:"duration"`
}

// Summary renders the counts as one log line.
func (r *Result) Summary() string {
	return fmt.Sprintf("added=%d updated=%d deleted=%d skipped=%d failed=%d",
		r.Added, r.Updated, r.Deleted, r.Skipped, r.Failed)
}

// Total is the number of entries the run emitted.
func (r *Result) Total() int64 {
	return r.Added + r.Updated + r.Deleted + r.Skipped
}

// Error is a fatal run failure.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Job runs synchronizations between one store and one index.
type Job struct {
	name          string
	store         iterator.StoreQuerier
	index         iterator.IndexQuerier
	writer        IndexWriter
	cleaner       InvalidCleaner
	storePageSize int
	indexPageSize int
	metrics       *telemetry.SyncMetrics
	tracer        trace.Tracer
	logger        *slog.Logger
	progress      *Progress
}

// Option configures a Job.
type Option func(*Job)

// WithName sets the job name used in logs, metrics and status.
func WithName(name string) Option {
	return func(j *Job) {
		j.name = name
	}
}

// WithPageSizes sets the store and index page sizes.
func WithPageSizes(store, index int) Option {
	return func(j *Job) {
		j.storePageSize = store
		j.indexPageSize = index
	}
}

// WithInvalidCleaner enables Request.CleanInvalid.
func WithInvalidCleaner(c InvalidCleaner) Option {
	return func(j *Job) {
		j.cleaner = c
	}
}

// WithMetrics records action counts and run durations.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(j *Job) {
		j.metrics = m
	}
}

// WithTracer traces each run.
func WithTracer(t trace.Tracer) Option {
	return func(j *Job) {
		j.tracer = t
	}
}

// WithLogger sets the logger of the job. The default logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(j *Job) {
		j.logger = l
	}
}

// New creates a Job.
func New(store iterator.StoreQuerier, index iterator.IndexQuerier, writer IndexWriter, opts ...Option) *Job {
	j := &Job{
		name:   "default",
		store:  store,
		index:  index,
		writer: writer,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.progress = newProgress()
	return j
}

// Name returns the job name.
func (j *Job) Name() string {
	return j.name
}

// Progress returns the progress of the current or last run.
func (j *Job) Progress() *Progress {
	return j.progress
}

// Run executes one synchronization. The result is returned even on error and
// carries the counts reached before the failure.
func (j *Job) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{}

	ctx, span := otel.StartSpan(ctx, j.tracer, "sync.Run", trace.WithAttributes(
		otel.AttrJobName.String(j.name),
		otel.AttrRoot.String(req.Root.String()),
		otel.AttrOverwrite.Bool(req.Overwrite),
		otel.AttrDryRun.Bool(req.DryRun),
	))
	defer span.End()

	logger := j.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("job", j.name, "root", req.Root.String())
	logger.InfoContext(ctx, "Starting synchronization",
		"overwrite", req.Overwrite, "remove_missing", req.RemoveMissing,
		"clean_invalid", req.CleanInvalid, "dry_run", req.DryRun)

	var err error
	if req.Overwrite {
		err = j.overwrite(ctx, logger, req, result)
	} else {
		err = j.incremental(ctx, logger, req, result)
	}

	result.Duration = time.Since(start)
	j.metrics.RecordSyncDuration(ctx, j.name, result.Duration, err == nil)
	span.SetAttributes(otel.AttrEntriesTotal.Int64(result.Total()))

	if err != nil {
		otel.RecordError(span, err)
		logger.ErrorContext(ctx, "Synchronization failed", "error", err, "summary", result.Summary())
		return result, &Error{Message: "failed to synchronize", Err: err}
	}

	logger.InfoContext(ctx, "Synchronization complete", "summary", result.Summary(), "duration", result.Duration)
	return result, nil
}

func (j *Job) overwrite(ctx context.Context, logger *slog.Logger, req Request, result *Result) error {
	if req.Root.IsDocument() {
		return j.overwriteDocument(ctx, logger, req, result)
	}

	source := iterator.NewStoreIterator(j.store, j.storePageSize)
	if err := source.SetRootScope(req.Root); err != nil {
		return err
	}
	j.startProgress(ctx, logger, source.Size)

	for {
		ok, err := source.HasNext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		entry, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		j.apply(ctx, logger, req, result, iterator.DiffEntry{
			Key:         entry.Key,
			Action:      iterator.ActionAdd,
			NextVersion: entry.Version,
		})
	}
}

// overwriteDocument reindexes the single document named by the root with
// every locale in one recursive call, dropping index locales the store no
// longer has. When the store has no locale left the document is removed from
// the index. Counts are per locale.
func (j *Job) overwriteDocument(ctx context.Context, logger *slog.Logger, req Request, result *Result) error {
	if err := req.Root.Validate(); err != nil {
		return err
	}
	key := reference.Key{Wiki: req.Root.Wiki, Space: slices.Clone(req.Root.Space), Name: req.Root.Name}

	j.progress.start(1)
	defer j.progress.step(ctx, logger)

	locales, err := j.store.CountDocuments(ctx, req.Root)
	if err != nil {
		return fmt.Errorf("failed to count store documents: %w", err)
	}
	if locales > 0 {
		result.Added += locales
		j.write(ctx, logger, req, result, iterator.DiffEntry{Key: key, Action: iterator.ActionAdd}, true)
		return nil
	}

	indexed, err := j.index.CountEntries(ctx, req.Root)
	if err != nil {
		return fmt.Errorf("failed to count index entries: %w", err)
	}
	if indexed == 0 {
		logger.InfoContext(ctx, "Document is neither in the store nor in the index")
		return nil
	}
	result.Deleted += indexed
	j.write(ctx, logger, req, result, iterator.DiffEntry{Key: key, Action: iterator.ActionDelete}, true)
	return nil
}

func (j *Job) incremental(ctx context.Context, logger *slog.Logger, req Request, result *Result) error {
	if req.CleanInvalid {
		if err := j.cleanInvalid(ctx, logger, req, result); err != nil {
			return err
		}
	}

	previous := iterator.NewIndexIterator(j.index, j.indexPageSize)
	if err := previous.SetRootScope(req.Root); err != nil {
		return err
	}
	next := iterator.NewStoreIterator(j.store, j.storePageSize)
	if err := next.SetRootScope(req.Root); err != nil {
		return err
	}

	diff := iterator.NewDiffIterator(previous, next,
		iterator.WithNewerPreviousObserver(func(e iterator.DiffEntry) {
			logger.DebugContext(ctx, "Index holds a newer version than the store",
				"key", e.Key.String(), "index_version", e.PreviousVersion, "store_version", e.NextVersion)
		}),
	)
	j.startProgress(ctx, logger, diff.Size)

	for {
		ok, err := diff.HasNext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		entry, err := diff.Next(ctx)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		j.apply(ctx, logger, req, result, entry)
	}
}

func (j *Job) cleanInvalid(ctx context.Context, logger *slog.Logger, req Request, result *Result) error {
	if j.cleaner == nil {
		logger.WarnContext(ctx, "Invalid entry cleanup requested but no cleaner is configured")
		return nil
	}
	if req.DryRun {
		logger.InfoContext(ctx, "Skipping invalid entry cleanup in dry run")
		return nil
	}

	n, err := j.cleaner.CleanInvalid(ctx, req.Root)
	if err != nil {
		return err
	}
	result.Invalid = n
	j.metrics.RecordInvalidRemoved(ctx, j.name, n)
	return nil
}

func (j *Job) startProgress(ctx context.Context, logger *slog.Logger, size func(context.Context) (int64, error)) {
	total, err := size(ctx)
	if err != nil {
		// The estimate only drives progress reporting.
		logger.WarnContext(ctx, "Failed to estimate entry count", "error", err)
		total = 0
	}
	j.progress.start(total)
	j.metrics.RecordEstimate(ctx, j.name, total)
}

// apply counts one action and performs it. Failures are counted and logged,
// never returned.
func (j *Job) apply(ctx context.Context, logger *slog.Logger, req Request, result *Result, entry iterator.DiffEntry) {
	defer j.progress.step(ctx, logger)

	switch entry.Action {
	case iterator.ActionSkip:
		result.Skipped++
	case iterator.ActionAdd:
		result.Added++
	case iterator.ActionUpdate:
		result.Updated++
	case iterator.ActionDelete:
		result.Deleted++
	}
	j.write(ctx, logger, req, result, entry, false)
}

// write issues the index call of entry, if the request allows one, and
// records its outcome.
func (j *Job) write(
	ctx context.Context, logger *slog.Logger, req Request, result *Result, entry iterator.DiffEntry, recursive bool,
) {
	var (
		err     error
		applied bool
	)
	switch entry.Action {
	case iterator.ActionSkip:
	case iterator.ActionAdd, iterator.ActionUpdate:
		if !req.DryRun {
			err = j.writer.Index(ctx, entry.Key, recursive)
			applied = err == nil
		}
	case iterator.ActionDelete:
		if req.RemoveMissing && !req.DryRun {
			err = j.writer.Delete(ctx, entry.Key, recursive)
			applied = err == nil
		}
	default:
		err = fmt.Errorf("unknown action %s", entry.Action)
	}

	j.metrics.RecordAction(ctx, j.name, entry.Action.String(), applied)
	if err == nil {
		return
	}

	result.Failed++
	attrs := []any{"key", entry.Key.String(), "action", entry.Action.String(), "recursive", recursive, "error", err}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.WarnContext(ctx, "Index write interrupted", attrs...)
		return
	}
	logger.ErrorContext(ctx, "Failed to apply index action", attrs...)
}
