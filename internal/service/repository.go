package service

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go Repository

// Repository persists nodes, catalog records and distributions.
// Implementations return the package's sentinel errors for missing rows.
type Repository interface {
	// CheckReadiness checks if the backing store is reachable
	CheckReadiness(ctx context.Context) error

	// UpsertNode creates or updates a node and replaces its admin list
	UpsertNode(ctx context.Context, node *Node) (*Node, error)

	// GetNode returns a node by identifier, or ErrNodeNotFound
	GetNode(ctx context.Context, identifier string) (*Node, error)

	// ListNodes returns every node ordered by identifier
	ListNodes(ctx context.Context) ([]*Node, error)

	// SaveCatalog inserts or replaces the node's record for upload.UploadedOn.
	// The node is locked for the duration and promote is called after the row is
	// written and before the change is committed; a promote error aborts the save.
	SaveCatalog(ctx context.Context, upload CatalogUpload, promote func(context.Context) error) (*Record, error)

	// LatestCatalog returns the record with the most recent submission date, or ErrNoCatalogUploaded
	LatestCatalog(ctx context.Context, node string) (*Record, error)

	// ListCatalogs returns every record of the node, newest first
	ListCatalogs(ctx context.Context, node string) ([]*Record, error)

	// AppendVersion creates or updates the distribution and records a new version of it
	AppendVersion(ctx context.Context, version NewVersion) (*Distribution, *DistributionVersion, error)

	// GetDistribution returns a distribution without versions, or ErrDistributionNotFound
	GetDistribution(ctx context.Context, node, identifier string) (*Distribution, error)

	// ListDistributions returns up to limit distributions with identifiers after the
	// given one, each with at most versions versions, newest first
	ListDistributions(ctx context.Context, node, after string, limit, versions int) ([]*Distribution, error)

	// RecentVersions returns the n newest versions of each of the node's distributions
	RecentVersions(ctx context.Context, node string, n int) (map[string][]DistributionVersion, error)

	// LatestVersion returns the newest version of a distribution
	LatestVersion(ctx context.Context, node, identifier string) (*DistributionVersion, error)

	// DeleteDistribution removes a distribution with its versions and returns the version file paths
	DeleteDistribution(ctx context.Context, node, identifier string) ([]string, error)
}
