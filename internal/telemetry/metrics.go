package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CatalogMetricsMeterName is the name used for the catalog metrics meter
	CatalogMetricsMeterName = "github.com/stacklok/opendata-catalog-server/catalog"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/opendata-catalog-server/sync"
)

// CatalogMetrics holds the OpenTelemetry instruments for catalog metrics
type CatalogMetrics struct {
	datasetsTotal metric.Int64Gauge
}

// NewCatalogMetrics creates a new CatalogMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCatalogMetrics(provider metric.MeterProvider) (*CatalogMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CatalogMetricsMeterName)

	datasetsTotal, err := meter.Int64Gauge(
		"catalog_srv_datasets_total",
		metric.WithDescription("Number of datasets declared by each node's latest catalog"),
		metric.WithUnit("{dataset}"),
	)
	if err != nil {
		return nil, err
	}

	return &CatalogMetrics{
		datasetsTotal: datasetsTotal,
	}, nil
}

// RecordDatasetsTotal records the number of datasets in a node's latest catalog
func (m *CatalogMetrics) RecordDatasetsTotal(ctx context.Context, node string, count int64) {
	if m == nil || m.datasetsTotal == nil {
		return
	}

	m.datasetsTotal.Record(ctx, count, metric.WithAttributes(attribute.String("node", node)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	warnings     metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"catalog_srv_sync_duration_seconds",
		metric.WithDescription("Duration of node sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	warnings, err := meter.Int64Counter(
		"catalog_srv_sync_warnings_total",
		metric.WithDescription("Number of non-fatal problems reported by node syncs"),
		metric.WithUnit("{warning}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		warnings:     warnings,
	}, nil
}

// RecordSyncDuration records the duration of a sync operation for a node
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, node string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("node", node),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordWarnings adds count to the node's sync warning counter
func (m *SyncMetrics) RecordWarnings(ctx context.Context, node string, count int) {
	if m == nil || m.warnings == nil || count <= 0 {
		return
	}

	m.warnings.Add(ctx, int64(count), metric.WithAttributes(attribute.String("node", node)))
}
