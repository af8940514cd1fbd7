// Package database provides a PostgreSQL implementation of the service Repository
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/opendata-catalog-server/internal/db/sqlc"
	"github.com/stacklok/opendata-catalog-server/internal/otel"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

// options holds configuration options for the database repository
type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the database repository
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The caller is responsible for closing
// the pool when it is done.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the repository.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// dbRepository implements the service.Repository interface on PostgreSQL
type dbRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ service.Repository = (*dbRepository)(nil)

// New creates a new database-backed repository with the given options
func New(opts ...Option) (service.Repository, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}

	return &dbRepository{
		pool:   o.pool,
		tracer: o.tracer,
	}, nil
}

// CheckReadiness checks if the database is reachable
func (r *dbRepository) CheckReadiness(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// inTx runs fn in a read-committed transaction, committing when it returns nil
func (r *dbRepository) inTx(ctx context.Context, fn func(q *sqlc.Queries) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		err := tx.Rollback(ctx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", err)
		}
	}()

	if err := fn(sqlc.New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertNode creates or updates a node and replaces its admin list
func (r *dbRepository) UpsertNode(ctx context.Context, node *service.Node) (*service.Node, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.UpsertNode",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(node.Identifier)))
	defer span.End()

	var result *service.Node
	err := r.inTx(ctx, func(q *sqlc.Queries) error {
		row, err := q.UpsertNode(ctx, upsertNodeParams(node))
		if err != nil {
			return fmt.Errorf("failed to upsert node %s: %w", node.Identifier, err)
		}
		if err := q.DeleteNodeAdmins(ctx, row.ID); err != nil {
			return fmt.Errorf("failed to clear admins of node %s: %w", node.Identifier, err)
		}
		for _, principal := range node.Admins {
			if err := q.InsertNodeAdmin(ctx, sqlc.InsertNodeAdminParams{
				NodeID:    row.ID,
				Principal: principal,
			}); err != nil {
				return fmt.Errorf("failed to add admin to node %s: %w", node.Identifier, err)
			}
		}
		admins, err := q.ListNodeAdmins(ctx, row.ID)
		if err != nil {
			return fmt.Errorf("failed to list admins of node %s: %w", node.Identifier, err)
		}
		result = toNode(row, admins)
		return nil
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// GetNode returns a node by identifier
func (r *dbRepository) GetNode(ctx context.Context, identifier string) (*service.Node, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.GetNode",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(identifier)))
	defer span.End()

	querier := sqlc.New(r.pool)
	row, err := querier.GetNodeByIdentifier(ctx, identifier)
	if err != nil {
		err = nodeError(identifier, err)
		otel.RecordError(span, err)
		return nil, err
	}
	admins, err := querier.ListNodeAdmins(ctx, row.ID)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list admins of node %s: %w", identifier, err)
	}
	return toNode(row, admins), nil
}

// ListNodes returns every node ordered by identifier
func (r *dbRepository) ListNodes(ctx context.Context) ([]*service.Node, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.ListNodes")
	defer span.End()

	querier := sqlc.New(r.pool)
	rows, err := querier.ListNodes(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]*service.Node, 0, len(rows))
	for _, row := range rows {
		admins, err := querier.ListNodeAdmins(ctx, row.ID)
		if err != nil {
			otel.RecordError(span, err)
			return nil, fmt.Errorf("failed to list admins of node %s: %w", row.Identifier, err)
		}
		nodes = append(nodes, toNode(row, admins))
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(nodes)))
	return nodes, nil
}

// SaveCatalog locks the node row, upserts the day's record, runs promote and commits.
// Concurrent submissions for the same node queue on the row lock.
func (r *dbRepository) SaveCatalog(
	ctx context.Context,
	upload service.CatalogUpload,
	promote func(context.Context) error,
) (*service.Record, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.SaveCatalog",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(upload.Node),
			otel.AttrCatalogFormat.String(upload.Format.String()),
		))
	defer span.End()

	var record *service.Record
	err := r.inTx(ctx, func(q *sqlc.Queries) error {
		node, err := q.LockNodeByIdentifier(ctx, upload.Node)
		if err != nil {
			return nodeError(upload.Node, err)
		}

		row, err := q.UpsertCatalogUpload(ctx, sqlc.UpsertCatalogUploadParams{
			NodeID:     node.ID,
			Format:     sqlc.CatalogFormat(upload.Format),
			UploadedOn: upload.UploadedOn,
			FilePath:   upload.FilePath,
		})
		if err != nil {
			return fmt.Errorf("failed to save catalog record: %w", err)
		}

		if promote != nil {
			if err := promote(ctx); err != nil {
				return err
			}
		}

		record = toRecord(upload.Node, row)
		return nil
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return record, nil
}

// LatestCatalog returns the record with the most recent submission date
func (r *dbRepository) LatestCatalog(ctx context.Context, node string) (*service.Record, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.LatestCatalog",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(node)))
	defer span.End()

	querier := sqlc.New(r.pool)
	n, err := querier.GetNodeByIdentifier(ctx, node)
	if err != nil {
		err = nodeError(node, err)
		otel.RecordError(span, err)
		return nil, err
	}

	row, err := querier.GetLatestCatalogUpload(ctx, n.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: node %s", service.ErrNoCatalogUploaded, node)
		}
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get latest catalog: %w", err)
	}
	return toRecord(node, row), nil
}

// ListCatalogs returns every record of the node, newest first
func (r *dbRepository) ListCatalogs(ctx context.Context, node string) ([]*service.Record, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.ListCatalogs",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(node)))
	defer span.End()

	querier := sqlc.New(r.pool)
	n, err := querier.GetNodeByIdentifier(ctx, node)
	if err != nil {
		err = nodeError(node, err)
		otel.RecordError(span, err)
		return nil, err
	}

	rows, err := querier.ListCatalogUploads(ctx, n.ID)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}
	records := make([]*service.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(node, row))
	}
	return records, nil
}

// AppendVersion creates or updates the distribution and records a new version of it
func (r *dbRepository) AppendVersion(
	ctx context.Context,
	v service.NewVersion,
) (*service.Distribution, *service.DistributionVersion, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.AppendVersion",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(v.Node),
			otel.AttrDistributionID.String(v.Identifier),
		))
	defer span.End()

	var (
		dist    *service.Distribution
		version *service.DistributionVersion
	)
	err := r.inTx(ctx, func(q *sqlc.Queries) error {
		node, err := q.GetNodeByIdentifier(ctx, v.Node)
		if err != nil {
			return nodeError(v.Node, err)
		}

		row, err := q.UpsertDistribution(ctx, sqlc.UpsertDistributionParams{
			NodeID:            node.ID,
			DatasetIdentifier: v.DatasetIdentifier,
			Identifier:        v.Identifier,
			FileName:          v.FileName,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert distribution %s: %w", v.Identifier, err)
		}

		vrow, err := q.InsertDistributionVersion(ctx, sqlc.InsertDistributionVersionParams{
			DistributionID: row.ID,
			UploadedAt:     v.UploadedAt,
			FilePath:       v.FilePath,
			FileName:       v.FileName,
		})
		if err != nil {
			return fmt.Errorf("failed to insert version of %s: %w", v.Identifier, err)
		}

		dist = toDistribution(v.Node, row)
		version = toVersion(row.Identifier, vrow)
		return nil
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, nil, err
	}
	return dist, version, nil
}

func (*dbRepository) getDistribution(
	ctx context.Context,
	q *sqlc.Queries,
	node, identifier string,
) (sqlc.Distribution, error) {
	n, err := q.GetNodeByIdentifier(ctx, node)
	if err != nil {
		return sqlc.Distribution{}, nodeError(node, err)
	}
	row, err := q.GetDistribution(ctx, sqlc.GetDistributionParams{NodeID: n.ID, Identifier: identifier})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sqlc.Distribution{}, fmt.Errorf("%w: %s", service.ErrDistributionNotFound, identifier)
		}
		return sqlc.Distribution{}, fmt.Errorf("failed to get distribution %s: %w", identifier, err)
	}
	return row, nil
}

// GetDistribution returns a distribution without versions
func (r *dbRepository) GetDistribution(ctx context.Context, node, identifier string) (*service.Distribution, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.GetDistribution",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrDistributionID.String(identifier),
		))
	defer span.End()

	row, err := r.getDistribution(ctx, sqlc.New(r.pool), node, identifier)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return toDistribution(node, row), nil
}

// ListDistributions returns up to limit distributions with identifiers after the given one
func (r *dbRepository) ListDistributions(
	ctx context.Context,
	node, after string,
	limit, versions int,
) ([]*service.Distribution, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.ListDistributions",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrPageSize.Int(limit),
		))
	defer span.End()

	querier := sqlc.New(r.pool)
	n, err := querier.GetNodeByIdentifier(ctx, node)
	if err != nil {
		err = nodeError(node, err)
		otel.RecordError(span, err)
		return nil, err
	}

	rows, err := querier.ListDistributions(ctx, sqlc.ListDistributionsParams{
		NodeID:  n.ID,
		After:   after,
		MaxRows: int32(limit), //nolint:gosec // limit is capped by the service
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}

	dists := make([]*service.Distribution, 0, len(rows))
	for _, row := range rows {
		dists = append(dists, toDistribution(node, row))
	}
	if len(dists) == 0 || versions == 0 {
		return dists, nil
	}

	recent, err := r.recentVersions(ctx, querier, n.ID, versions)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	for _, d := range dists {
		d.Versions = recent[d.Identifier]
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(dists)))
	return dists, nil
}

// RecentVersions returns the n newest versions of each of the node's distributions
func (r *dbRepository) RecentVersions(ctx context.Context, node string, n int) (map[string][]service.DistributionVersion, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.RecentVersions",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(node)))
	defer span.End()

	querier := sqlc.New(r.pool)
	row, err := querier.GetNodeByIdentifier(ctx, node)
	if err != nil {
		err = nodeError(node, err)
		otel.RecordError(span, err)
		return nil, err
	}

	recent, err := r.recentVersions(ctx, querier, row.ID, n)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return recent, nil
}

// LatestVersion returns the newest version of a distribution
func (r *dbRepository) LatestVersion(ctx context.Context, node, identifier string) (*service.DistributionVersion, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.LatestVersion",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrDistributionID.String(identifier),
		))
	defer span.End()

	querier := sqlc.New(r.pool)
	dist, err := r.getDistribution(ctx, querier, node, identifier)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	row, err := querier.GetLatestDistributionVersion(ctx, dist.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", service.ErrVersionNotFound, identifier)
		}
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get latest version of %s: %w", identifier, err)
	}
	return toVersion(dist.Identifier, row), nil
}

// DeleteDistribution removes a distribution with its versions and returns the version file paths
func (r *dbRepository) DeleteDistribution(ctx context.Context, node, identifier string) ([]string, error) {
	ctx, span := r.startSpan(ctx, "dbRepository.DeleteDistribution",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrDistributionID.String(identifier),
		))
	defer span.End()

	var paths []string
	err := r.inTx(ctx, func(q *sqlc.Queries) error {
		dist, err := r.getDistribution(ctx, q, node, identifier)
		if err != nil {
			return err
		}
		paths, err = q.ListDistributionVersionPaths(ctx, dist.ID)
		if err != nil {
			return fmt.Errorf("failed to list versions of %s: %w", identifier, err)
		}
		affected, err := q.DeleteDistribution(ctx, sqlc.DeleteDistributionParams{
			NodeID:     dist.NodeID,
			Identifier: identifier,
		})
		if err != nil {
			return fmt.Errorf("failed to delete distribution %s: %w", identifier, err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", service.ErrDistributionNotFound, identifier)
		}
		return nil
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return paths, nil
}
