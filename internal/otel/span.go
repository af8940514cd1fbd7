// Package otel provides OpenTelemetry instrumentation utilities for the catalog server.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Common attribute keys for business context used across the application.
// Using shared keys ensures consistent attribute naming in traces.
const (
	AttrNodeIdentifier   = attribute.Key("node.identifier")
	AttrCatalogFormat    = attribute.Key("catalog.format")
	AttrDatasetID        = attribute.Key("dataset.identifier")
	AttrDistributionID   = attribute.Key("distribution.identifier")
	AttrSourceURL        = attribute.Key("source.url")
	AttrPageSize         = attribute.Key("pagination.limit")
	AttrResultCount      = attribute.Key("result.count")
	AttrHasCursor        = attribute.Key("pagination.has_cursor")
	AttrValidationErrors = attribute.Key("validation.error_count")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
// The no-op span is detached from ctx so ending it never ends a caller's span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// Note: The status description is intentionally generic to prevent sensitive
// information (e.g., SQL queries, connection strings) from appearing in trace
// status. The full error details are still available via span events for debugging.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
