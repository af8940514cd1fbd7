package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/otel"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	"github.com/stacklok/opendata-catalog-server/internal/telemetry"
)

// SyncTracerName is the name used for the sync tracer
const SyncTracerName = "github.com/stacklok/opendata-catalog-server/sync"

// DefaultConcurrency is how many nodes SyncAll syncs at once
const DefaultConcurrency = 4

// Result is the outcome of a successful node sync
type Result struct {
	Node                string          `json:"node"`
	Catalog             *service.Record `json:"-"`
	DatasetsSynced      int             `json:"datasets_synced"`
	DistributionsSynced int             `json:"distributions_synced"`
	Warnings            []string        `json:"warnings"`
}

// NodeResult is the outcome of one node within SyncAll. Exactly one of Result and Err is set.
type NodeResult struct {
	Node   string
	Result *Result
	Err    error
}

// Manager runs catalog syncs
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/opendata-catalog-server/internal/sync Manager
type Manager interface {
	// Sync pulls the catalog declared by the node's source
	Sync(ctx context.Context, node string) (*Result, error)

	// SyncAll syncs every node that declares a source
	SyncAll(ctx context.Context) ([]NodeResult, error)
}

// Option configures the default manager
type Option func(*defaultSyncManager)

// WithSyncMetrics sets the metrics recorded for every sync
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithConcurrency bounds how many nodes SyncAll syncs at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(m *defaultSyncManager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for the manager
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

type defaultSyncManager struct {
	svc         service.Service
	metrics     *telemetry.SyncMetrics
	tracer      trace.Tracer
	concurrency int
}

var _ Manager = (*defaultSyncManager)(nil)

// NewManager creates a Manager that submits through svc
func NewManager(svc service.Service, opts ...Option) Manager {
	m := &defaultSyncManager{svc: svc, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sync implements Manager.Sync
func (m *defaultSyncManager) Sync(ctx context.Context, identifier string) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "syncManager.Sync",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(identifier)))
	defer span.End()

	start := time.Now()
	result, err := m.sync(ctx, identifier)
	m.metrics.RecordSyncDuration(ctx, identifier, time.Since(start), err == nil)
	if err != nil {
		otel.RecordError(span, err)
		slog.WarnContext(ctx, "Catalog sync failed", "node", identifier, "error", err)
		return nil, err
	}

	m.metrics.RecordWarnings(ctx, identifier, len(result.Warnings))
	span.SetAttributes(
		attribute.Int("sync.datasets", result.DatasetsSynced),
		attribute.Int("sync.distributions", result.DistributionsSynced),
		attribute.Int("sync.warnings", len(result.Warnings)),
	)
	slog.InfoContext(ctx, "Catalog sync completed",
		"node", identifier,
		"datasets", result.DatasetsSynced,
		"distributions", result.DistributionsSynced,
		"warnings", len(result.Warnings),
		"duration", time.Since(start).String())

	return result, nil
}

func (m *defaultSyncManager) sync(ctx context.Context, identifier string) (*Result, error) {
	node, err := m.svc.GetNode(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if node.Source == nil || node.Source.URL == "" {
		return nil, &CatalogSyncError{
			Node:    identifier,
			Reason:  ReasonNoSource,
			Message: "the node declares no catalog source",
		}
	}
	src := node.Source

	record, err := m.svc.SubmitCatalog(ctx, identifier, ingest.Submission{
		Format: src.Format.String(),
		Source: ingest.Source{URL: src.URL},
	}, service.WithStrict(false))
	if err != nil {
		return nil, submissionError(identifier, err)
	}

	doc, err := record.ParsedDocument()
	if err != nil {
		return nil, submissionError(identifier, err)
	}
	report, err := record.Report()
	if err != nil {
		return nil, submissionError(identifier, err)
	}

	result := &Result{Node: identifier, Catalog: record, Warnings: []string{}}
	for _, msg := range report.CatalogErrors {
		result.Warnings = append(result.Warnings, fmt.Sprintf("catalog: %s", msg))
	}

	for _, dataset := range doc.Datasets() {
		if errs, invalid := report.DatasetReport(dataset.Identifier); invalid {
			for _, msg := range errs.Errors {
				result.Warnings = append(result.Warnings, fmt.Sprintf("dataset %s: %s", dataset.Identifier, msg))
			}
			continue
		}
		result.DatasetsSynced++

		if !src.SyncDistributions {
			continue
		}
		for _, dist := range dataset.Distributions {
			if dist.DownloadURL == "" {
				continue
			}
			if dist.Identifier == "" {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("dataset %s: distribution %s has no identifier", dataset.Identifier, dist.DownloadURL))
				continue
			}
			_, err := m.svc.UpsertDistribution(ctx, identifier, service.DistributionUpload{
				DatasetIdentifier: dataset.Identifier,
				Identifier:        dist.Identifier,
				FileName:          dist.FileName,
				Source:            ingest.Source{URL: dist.DownloadURL},
				Catalog:           record,
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, &CatalogSyncError{
						Node:    identifier,
						Reason:  ReasonFetchFailed,
						Message: "sync interrupted",
						Err:     errors.Join(ctxErr, err),
					}
				}
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("distribution %s: %v", dist.Identifier, err))
				continue
			}
			result.DistributionsSynced++
		}
	}

	return result, nil
}

// SyncAll implements Manager.SyncAll. Results keep the order of ListNodes;
// a failing node does not stop the others.
func (m *defaultSyncManager) SyncAll(ctx context.Context) ([]NodeResult, error) {
	nodes, err := m.svc.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	var sources []string
	for _, node := range nodes {
		if node.Source != nil && node.Source.URL != "" {
			sources = append(sources, node.Identifier)
		}
	}

	results := make([]NodeResult, len(sources))
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, identifier := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := m.Sync(ctx, identifier)
			results[i] = NodeResult{Node: identifier, Result: result, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
