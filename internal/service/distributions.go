package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/otel"
)

// UpsertDistribution checks the dataset against the latest catalog, stores the
// version file, then records the distribution and its new version. The file is
// removed again if the rows cannot be written.
func (s *catalogService) UpsertDistribution(
	ctx context.Context,
	node string,
	upload DistributionUpload,
) (*Distribution, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "catalogService.UpsertDistribution",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrDatasetID.String(upload.DatasetIdentifier),
			otel.AttrDistributionID.String(upload.Identifier),
		))
	defer span.End()

	if upload.DatasetIdentifier == "" || upload.Identifier == "" {
		err := fmt.Errorf("%w: dataset and distribution identifiers are required", ErrInvalidDistribution)
		otel.RecordError(span, err)
		return nil, err
	}

	if err := s.requireDataset(ctx, node, upload.DatasetIdentifier, upload.Catalog); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	dist, err := s.storeVersion(ctx, NewVersion{
		Node:              node,
		DatasetIdentifier: upload.DatasetIdentifier,
		Identifier:        upload.Identifier,
		FileName:          upload.FileName,
	}, upload.Source)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return dist, nil
}

// AddVersion stores a new version of an existing distribution
func (s *catalogService) AddVersion(
	ctx context.Context,
	node, distribution string,
	upload VersionUpload,
) (*Distribution, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "catalogService.AddVersion",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrDistributionID.String(distribution),
		))
	defer span.End()

	existing, err := s.repo.GetDistribution(ctx, node, distribution)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	if err := s.requireDataset(ctx, node, existing.DatasetIdentifier, nil); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	dist, err := s.storeVersion(ctx, NewVersion{
		Node:              node,
		DatasetIdentifier: existing.DatasetIdentifier,
		Identifier:        existing.Identifier,
		FileName:          upload.FileName,
	}, upload.Source, existing.FileName)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return dist, nil
}

// requireDataset fails with ErrUnknownDataset unless the node's latest catalog
// declares the dataset. known is used in place of a fresh read when it is still
// the latest record.
func (s *catalogService) requireDataset(ctx context.Context, node, dataset string, known *Record) error {
	record, err := s.LatestCatalog(ctx, node)
	if err != nil {
		return err
	}
	if known.sameUpload(record) {
		record = known
	}
	found, err := record.HasDataset(dataset)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
	}
	return nil
}

// storeVersion obtains the content, writes the version file and records it.
// fallbackNames are tried, in order, after the explicit and obtained file names.
func (s *catalogService) storeVersion(
	ctx context.Context,
	version NewVersion,
	src ingest.Source,
	fallbackNames ...string,
) (*Distribution, error) {
	content, err := s.inputs.Obtain(ctx, src)
	if err != nil {
		return nil, err
	}

	candidates := append([]string{version.FileName, content.FileName}, fallbackNames...)
	candidates = append(candidates, version.Identifier)
	version.FileName = ""
	for _, name := range candidates {
		if name != "" {
			version.FileName = name
			break
		}
	}

	version.UploadedAt = s.clock().UTC()
	path, err := s.store.StoreVersion(version.Node, version.Identifier, version.FileName, version.UploadedAt, content.Data)
	if err != nil {
		return nil, err
	}
	version.FilePath = path

	dist, stored, err := s.repo.AppendVersion(ctx, version)
	if err != nil {
		if rmErr := s.store.RemoveVersion(path); rmErr != nil {
			slog.ErrorContext(ctx, "Failed to remove orphaned version file", "path", path, "error", rmErr)
		}
		return nil, err
	}
	dist.Versions = []DistributionVersion{*stored}

	slog.InfoContext(ctx, "Distribution version stored",
		"node", version.Node,
		"dataset", version.DatasetIdentifier,
		"distribution", version.Identifier,
		"file_name", version.FileName,
		"request_id", middleware.GetReqID(ctx))

	return dist, nil
}

// ListDistributions returns a page of the node's distributions with their recent versions
func (s *catalogService) ListDistributions(
	ctx context.Context,
	node string,
	opts ...Option[ListDistributionsOptions],
) (*ListDistributionsResult, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "catalogService.ListDistributions",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(node)))
	defer span.End()

	options := &ListDistributionsOptions{
		Limit:    DefaultPageSize,
		Versions: DefaultVersionsPerDistribution,
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}
	options.Limit = min(options.Limit, MaxPageSize)
	options.Versions = min(options.Versions, MaxVersionsPerDistribution)

	span.SetAttributes(
		otel.AttrPageSize.Int(options.Limit),
		otel.AttrHasCursor.Bool(options.Cursor != ""),
	)

	after, err := DecodeCursor(options.Cursor)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	if _, err := s.repo.GetNode(ctx, node); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	// Request one extra record to detect if there are more results
	dists, err := s.repo.ListDistributions(ctx, node, after, options.Limit+1, options.Versions)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	result := &ListDistributionsResult{Distributions: dists}
	if len(dists) > options.Limit {
		result.Distributions = dists[:options.Limit]
		result.NextCursor = EncodeCursor(result.Distributions[options.Limit-1].Identifier)
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(result.Distributions)))
	return result, nil
}

// LastNVersions returns, per distribution identifier, the n newest versions
func (s *catalogService) LastNVersions(ctx context.Context, node string, n int) (map[string][]DistributionVersion, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid version count: %d", n)
	}
	if _, err := s.repo.GetNode(ctx, node); err != nil {
		return nil, err
	}
	return s.repo.RecentVersions(ctx, node, n)
}

// DeleteDistribution removes a distribution, its versions and their files
func (s *catalogService) DeleteDistribution(ctx context.Context, node, distribution string) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "catalogService.DeleteDistribution",
		trace.WithAttributes(
			otel.AttrNodeIdentifier.String(node),
			otel.AttrDistributionID.String(distribution),
		))
	defer span.End()

	paths, err := s.repo.DeleteDistribution(ctx, node, distribution)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}

	for _, path := range paths {
		if err := s.store.RemoveVersion(path); err != nil {
			slog.WarnContext(ctx, "Failed to remove version file", "path", path, "error", err)
		}
	}

	slog.InfoContext(ctx, "Distribution deleted",
		"node", node,
		"distribution", distribution,
		"versions", len(paths),
		"request_id", middleware.GetReqID(ctx))
	return nil
}

// OpenLatestVersion opens the newest version file of a distribution
func (s *catalogService) OpenLatestVersion(
	ctx context.Context,
	node, distribution string,
) (io.ReadSeekCloser, *DistributionVersion, error) {
	version, err := s.repo.LatestVersion(ctx, node, distribution)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.store.Open(version.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: file for version %d is missing", ErrVersionNotFound, version.ID)
		}
		return nil, nil, err
	}
	return f, version, nil
}
