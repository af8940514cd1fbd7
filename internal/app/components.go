package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/opendata-catalog-server/internal/service"
	catalogsync "github.com/stacklok/opendata-catalog-server/internal/sync"
	"github.com/stacklok/opendata-catalog-server/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// CatalogService provides catalog business logic
	CatalogService service.Service

	// SyncManager pulls node catalogs from their published sources
	SyncManager catalogsync.Manager

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry

	// Pool is the database connection pool (optional)
	Pool *pgxpool.Pool
}
