// Package otel holds span helpers and the attribute keys shared by the sync
// engine's traces.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used across synchronization spans.
const (
	AttrJobName      = attribute.Key("sync.job")
	AttrRoot         = attribute.Key("sync.root")
	AttrOverwrite    = attribute.Key("sync.overwrite")
	AttrDryRun       = attribute.Key("sync.dry_run")
	AttrRunID        = attribute.Key("sync.run_id")
	AttrDocumentKey  = attribute.Key("document.key")
	AttrEntriesTotal = attribute.Key("sync.entries_total")
)

// StartSpan starts a span on tracer, or returns the span already in ctx when
// tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. The status description
// stays generic so query text and connection strings never reach it.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
