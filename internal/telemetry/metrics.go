package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/wiki-index-sync/sync"

	// HTTPMetricsMeterName is the name used for the operations HTTP meter
	HTTPMetricsMeterName = "github.com/stacklok/wiki-index-sync/http"
)

// SyncMetrics holds the instruments recorded by synchronization jobs.
// A nil *SyncMetrics records nothing.
type SyncMetrics struct {
	actions      metric.Int64Counter
	invalid      metric.Int64Counter
	runDuration  metric.Float64Histogram
	lastEstimate metric.Int64Gauge
}

// NewSyncMetrics creates the sync instruments. A nil provider returns nil.
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	actions, err := meter.Int64Counter(
		"index_sync_actions_total",
		metric.WithDescription("Diff entries emitted, by action and whether the action was applied"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	invalid, err := meter.Int64Counter(
		"index_sync_invalid_entries_removed_total",
		metric.WithDescription("Invalid index entries removed before a diff"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"index_sync_run_duration_seconds",
		metric.WithDescription("Duration of synchronization runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900),
	)
	if err != nil {
		return nil, err
	}

	lastEstimate, err := meter.Int64Gauge(
		"index_sync_entries_estimate",
		metric.WithDescription("Estimated number of entries compared by the last run"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		actions:      actions,
		invalid:      invalid,
		runDuration:  runDuration,
		lastEstimate: lastEstimate,
	}, nil
}

// RecordAction counts one emitted diff entry.
func (m *SyncMetrics) RecordAction(ctx context.Context, job, action string, applied bool) {
	if m == nil {
		return
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("action", action),
		attribute.Bool("applied", applied),
	))
}

// RecordInvalidRemoved counts index entries removed by the invalid-entry cleaner.
func (m *SyncMetrics) RecordInvalidRemoved(ctx context.Context, job string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.invalid.Add(ctx, n, metric.WithAttributes(attribute.String("job", job)))
}

// RecordEstimate records the progress total of a run.
func (m *SyncMetrics) RecordEstimate(ctx context.Context, job string, n int64) {
	if m == nil {
		return
	}
	m.lastEstimate.Record(ctx, n, metric.WithAttributes(attribute.String("job", job)))
}

// RecordSyncDuration records the duration of one run.
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, job string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("job", job),
		attribute.Bool("success", success),
	))
}

// HTTPMetrics holds the instruments for the operations HTTP server.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
}

// NewHTTPMetrics creates the HTTP instruments. A nil provider returns nil.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(HTTPMetricsMeterName)

	requestDuration, err := meter.Float64Histogram(
		"index_sync_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, err
	}

	requestsTotal, err := meter.Int64Counter(
		"index_sync_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{requestDuration: requestDuration, requestsTotal: requestsTotal}, nil
}

// Middleware records one request. A nil *HTTPMetrics passes requests through.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.requestsTotal.Add(ctx, 1, attrs)
	})
}

// routePattern keeps the route label bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unknown_route"
}
