package database

import (
	"context"
	"strings"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/opendata-catalog-server/internal/otel"
)

// RepositoryTracerName is the name used for the database repository tracer
const RepositoryTracerName = "github.com/stacklok/opendata-catalog-server/service/db"

// startSpan starts a client span for a repository method named "dbRepository.<Operation>".
// Every span carries db.system and db.operation.name.
func (r *dbRepository) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	operation := name
	if _, method, ok := strings.Cut(name, "."); ok {
		operation = method
	}
	opts = append([]trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBOperationName(operation),
		),
	}, opts...)
	return otel.StartSpan(ctx, r.tracer, name, opts...)
}
