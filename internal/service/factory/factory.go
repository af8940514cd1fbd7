// Package factory provides factory functions for creating service implementations.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/opendata-catalog-server/internal/config"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	database "github.com/stacklok/opendata-catalog-server/internal/service/db"
	"github.com/stacklok/opendata-catalog-server/internal/service/inmemory"
)

// NewRepository creates a Repository based on the configuration.
//
// When a database section is configured it returns a PostgreSQL-backed
// repository; the pool parameter must not be nil in that case. Without a
// database section it returns an in-memory repository whose state is lost on
// restart.
func NewRepository(
	_ context.Context,
	cfg *config.Config,
	pool *pgxpool.Pool,
	tracer trace.Tracer,
) (service.Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Database != nil {
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when a database is configured")
		}
		slog.Info("Creating database-backed repository")
		return database.New(database.WithConnectionPool(pool), database.WithTracer(tracer))
	}

	slog.Warn("No database configured, node and catalog records are kept in memory")
	return inmemory.New(), nil
}
