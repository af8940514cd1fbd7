package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/db/sqlc"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

func nodeError(identifier string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", service.ErrNodeNotFound, identifier)
	}
	return fmt.Errorf("failed to get node %s: %w", identifier, err)
}

func upsertNodeParams(node *service.Node) sqlc.UpsertNodeParams {
	params := sqlc.UpsertNodeParams{Identifier: node.Identifier}
	if node.Source != nil {
		url := node.Source.URL
		params.SourceUrl = &url
		params.SyncDistributions = node.Source.SyncDistributions
		if node.Source.Format != "" {
			params.SourceFormat = sqlc.NullCatalogFormat{
				CatalogFormat: sqlc.CatalogFormat(node.Source.Format),
				Valid:         true,
			}
		}
	}
	return params
}

func toNode(row sqlc.Node, admins []string) *service.Node {
	node := &service.Node{
		ID:         row.ID,
		Identifier: row.Identifier,
		Admins:     admins,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.SourceUrl != nil {
		node.Source = &service.NodeSource{
			URL:               *row.SourceUrl,
			SyncDistributions: row.SyncDistributions,
		}
		if row.SourceFormat.Valid {
			node.Source.Format = catalog.Format(row.SourceFormat.CatalogFormat)
		}
	}
	return node
}

func toRecord(node string, row sqlc.CatalogUpload) *service.Record {
	return &service.Record{
		ID:         row.ID,
		Node:       node,
		Format:     catalog.Format(row.Format),
		UploadedOn: row.UploadedOn,
		FilePath:   row.FilePath,
		CreatedAt:  row.CreatedAt,
	}
}

func toDistribution(node string, row sqlc.Distribution) *service.Distribution {
	return &service.Distribution{
		ID:                row.ID,
		Node:              node,
		DatasetIdentifier: row.DatasetIdentifier,
		Identifier:        row.Identifier,
		FileName:          row.FileName,
		CreatedAt:         row.CreatedAt,
	}
}

func toVersion(distribution string, row sqlc.DistributionVersion) *service.DistributionVersion {
	return &service.DistributionVersion{
		ID:                     row.ID,
		DistributionIdentifier: distribution,
		UploadedAt:             row.UploadedAt,
		FilePath:               row.FilePath,
		FileName:               row.FileName,
	}
}

// recentVersions groups the node's newest versions by distribution identifier
func (*dbRepository) recentVersions(
	ctx context.Context,
	q *sqlc.Queries,
	nodeID uuid.UUID,
	n int,
) (map[string][]service.DistributionVersion, error) {
	rows, err := q.ListRecentVersions(ctx, sqlc.ListRecentVersionsParams{
		NodeID:      nodeID,
		MaxVersions: int64(n),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent versions: %w", err)
	}

	out := make(map[string][]service.DistributionVersion)
	for _, row := range rows {
		out[row.DistributionIdentifier] = append(out[row.DistributionIdentifier], service.DistributionVersion{
			ID:                     row.ID,
			DistributionIdentifier: row.DistributionIdentifier,
			UploadedAt:             row.UploadedAt,
			FilePath:               row.FilePath,
			FileName:               row.FileName,
		})
	}
	return out, nil
}
