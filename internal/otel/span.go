// Package otel provides OpenTelemetry span helpers shared by the update
// pipeline and the discovery import queue.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on bundle spans
const (
	AttrBundleUID    = attribute.Key("bundle.uid")
	AttrBundleOrigin = attribute.Key("bundle.origin")
	AttrBundleVer    = attribute.Key("bundle.version")
	AttrPassID       = attribute.Key("sync.pass_id")
	AttrPassForce    = attribute.Key("sync.force")
	AttrTargetCount  = attribute.Key("sync.targets")
	AttrOutcome      = attribute.Key("sync.outcome")
	AttrImportKey    = attribute.Key("discovery.key")
	AttrImportChan   = attribute.Key("discovery.channel")
)

// StartSpan starts a span on tracer. A nil tracer continues the span already
// in ctx, which is a no-op span when there is none.
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
// stays generic; URLs and tokens only appear in the exception event.
// Cancellation is not a failure and only adds a "cancelled" event.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		span.AddEvent("cancelled")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "operation failed")
}

// EndWithOutcome tags span with the per-bundle outcome, when known, and ends it
func EndWithOutcome(span trace.Span, outcome string) {
	if outcome != "" {
		span.SetAttributes(AttrOutcome.String(outcome))
	}
	span.End()
}
