// Package service provides the business logic for catalog and distribution submissions
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stacklok/opendata-catalog-server/internal/ingest"
)

var (
	// ErrNodeNotFound is returned when a node is not found
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidNodeIdentifier is returned when a node identifier is malformed
	ErrInvalidNodeIdentifier = errors.New("invalid node identifier")
	// ErrNoCatalogUploaded is returned when a node has never had a catalog accepted
	ErrNoCatalogUploaded = errors.New("no catalog uploaded")
	// ErrUnknownDataset is returned when a dataset is not declared by the node's latest catalog
	ErrUnknownDataset = errors.New("dataset not declared in the latest catalog")
	// ErrDistributionNotFound is returned when a distribution is not found
	ErrDistributionNotFound = errors.New("distribution not found")
	// ErrVersionNotFound is returned when a distribution has no stored version
	ErrVersionNotFound = errors.New("distribution version not found")
	// ErrMalformedCatalog is returned when a catalog cannot be parsed
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrSchemaInvalid is matched by *SchemaInvalidError
	ErrSchemaInvalid = errors.New("catalog does not satisfy the schema")
	// ErrInvalidDistribution is returned when a distribution request is incomplete
	ErrInvalidDistribution = errors.New("invalid distribution")
)

// GenericValidationMessage is the only message reported for a catalog that cannot be parsed
const GenericValidationMessage = "the submitted catalog cannot be validated"

// SchemaInvalidError carries every schema violation of a rejected catalog
type SchemaInvalidError struct {
	Messages []string
}

func (e *SchemaInvalidError) Error() string {
	if len(e.Messages) == 0 {
		return ErrSchemaInvalid.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSchemaInvalid, strings.Join(e.Messages, "; "))
}

// Is makes errors.Is(err, ErrSchemaInvalid) match
func (*SchemaInvalidError) Is(target error) bool {
	return target == ErrSchemaInvalid
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service

// Service defines the catalog and distribution operations
type Service interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// RegisterNode creates or updates a node
	RegisterNode(ctx context.Context, node *Node) (*Node, error)

	// GetNode returns a node by identifier
	GetNode(ctx context.Context, identifier string) (*Node, error)

	// ListNodes returns every node
	ListNodes(ctx context.Context) ([]*Node, error)

	// SubmitCatalog accepts a catalog for a node, replacing any catalog submitted the same day
	SubmitCatalog(
		ctx context.Context,
		node string,
		submission ingest.Submission,
		opts ...Option[SubmitCatalogOptions],
	) (*Record, error)

	// LatestCatalog returns the node's most recent catalog record
	LatestCatalog(ctx context.Context, node string) (*Record, error)

	// ListCatalogs returns the node's catalog history, newest first
	ListCatalogs(ctx context.Context, node string) ([]*Record, error)

	// OpenCatalog opens the canonical file of the node's latest catalog
	OpenCatalog(ctx context.Context, node string) (io.ReadSeekCloser, *Record, error)

	// UpsertDistribution stores a new version of a distribution, creating the distribution if needed
	UpsertDistribution(ctx context.Context, node string, upload DistributionUpload) (*Distribution, error)

	// AddVersion stores a new version of an existing distribution
	AddVersion(ctx context.Context, node, distribution string, upload VersionUpload) (*Distribution, error)

	// ListDistributions returns a page of the node's distributions with their recent versions
	ListDistributions(
		ctx context.Context,
		node string,
		opts ...Option[ListDistributionsOptions],
	) (*ListDistributionsResult, error)

	// LastNVersions returns, per distribution identifier, the n newest versions
	LastNVersions(ctx context.Context, node string, n int) (map[string][]DistributionVersion, error)

	// DeleteDistribution removes a distribution, its versions and their files
	DeleteDistribution(ctx context.Context, node, distribution string) error

	// OpenLatestVersion opens the newest version file of a distribution
	OpenLatestVersion(ctx context.Context, node, distribution string) (io.ReadSeekCloser, *DistributionVersion, error)
}
