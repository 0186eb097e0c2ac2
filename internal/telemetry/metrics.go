// Package telemetry provides OpenTelemetry instrumentation for the bundle sync service.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// BundleMetricsMeterName is the name used for the bundle state meter
	BundleMetricsMeterName = "github.com/stacklok/toolhive-bundle-sync/bundles"

	// SyncMetricsMeterName is the name used for the update pipeline meter
	SyncMetricsMeterName = "github.com/stacklok/toolhive-bundle-sync/sync"

	// PushMetricsMeterName is the name used for the change-feed meter
	PushMetricsMeterName = "github.com/stacklok/toolhive-bundle-sync/push"

	// ImportMetricsMeterName is the name used for the discovery import meter
	ImportMetricsMeterName = "github.com/stacklok/toolhive-bundle-sync/discovery"
)

// BundleMetrics holds the OpenTelemetry instruments for the bundle state
type BundleMetrics struct {
	bundles metric.Int64Gauge
}

// NewBundleMetrics creates a new BundleMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewBundleMetrics(provider metric.MeterProvider) (*BundleMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(BundleMetricsMeterName)

	bundles, err := meter.Int64Gauge(
		"bundle_sync_bundles",
		metric.WithDescription("Number of bundles by availability"),
		metric.WithUnit("{bundle}"),
	)
	if err != nil {
		return nil, err
	}

	return &BundleMetrics{bundles: bundles}, nil
}

// RecordBundles records how many bundles have the given availability
func (m *BundleMetrics) RecordBundles(ctx context.Context, availability string, count int64) {
	if m == nil || m.bundles == nil {
		return
	}
	m.bundles.Record(ctx, count, metric.WithAttributes(attribute.String("availability", availability)))
}

// SyncMetrics holds the OpenTelemetry instruments for update passes
type SyncMetrics struct {
	passDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	passDuration, err := meter.Float64Histogram(
		"bundle_sync_pass_duration",
		metric.WithDescription("Duration of update passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{passDuration: passDuration}, nil
}

// RecordPassDuration records the duration of one update pass
func (m *SyncMetrics) RecordPassDuration(ctx context.Context, force bool, duration time.Duration, success bool) {
	if m == nil || m.passDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("force", force),
		attribute.Bool("success", success),
	}
	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// PushMetrics holds the OpenTelemetry instruments for the change-feed client
type PushMetrics struct {
	triggers   metric.Int64Counter
	reconnects metric.Int64Counter
}

// NewPushMetrics creates a new PushMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewPushMetrics(provider metric.MeterProvider) (*PushMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PushMetricsMeterName)

	triggers, err := meter.Int64Counter(
		"bundle_sync_push_triggers",
		metric.WithDescription("Change-feed events by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	reconnects, err := meter.Int64Counter(
		"bundle_sync_push_reconnects",
		metric.WithDescription("Change-feed connection attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &PushMetrics{triggers: triggers, reconnects: reconnects}, nil
}

// RecordTrigger records a change-feed event; outcome is triggered, duplicate or throttled
func (m *PushMetrics) RecordTrigger(ctx context.Context, outcome string) {
	if m == nil || m.triggers == nil {
		return
	}
	m.triggers.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordReconnect records a connection attempt against endpoint
func (m *PushMetrics) RecordReconnect(ctx context.Context, endpoint string) {
	if m == nil || m.reconnects == nil {
		return
	}
	m.reconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// ImportMetrics holds the OpenTelemetry instruments for discovery imports
type ImportMetrics struct {
	imports metric.Int64Counter
}

// NewImportMetrics creates a new ImportMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewImportMetrics(provider metric.MeterProvider) (*ImportMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ImportMetricsMeterName)

	imports, err := meter.Int64Counter(
		"bundle_sync_imports",
		metric.WithDescription("Discovery imports by outcome"),
		metric.WithUnit("{import}"),
	)
	if err != nil {
		return nil, err
	}

	return &ImportMetrics{imports: imports}, nil
}

// RecordImport records one finished import
func (m *ImportMetrics) RecordImport(ctx context.Context, success bool) {
	if m == nil || m.imports == nil {
		return
	}
	m.imports.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
