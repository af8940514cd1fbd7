package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/config"
	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/otel"
	"github.com/stacklok/opendata-catalog-server/internal/storage"
	"github.com/stacklok/opendata-catalog-server/internal/telemetry"
)

// ServiceTracerName is the name used for the service tracer
const ServiceTracerName = "github.com/stacklok/opendata-catalog-server/service"

// serviceOptions holds configuration options for the service
type serviceOptions struct {
	clock    func() time.Time
	location *time.Location
	strict   bool
	tracer   trace.Tracer
	metrics  *telemetry.CatalogMetrics
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*serviceOptions) error

// WithClock replaces the wall clock used to date submissions
func WithClock(clock func() time.Time) ServiceOption {
	return func(o *serviceOptions) error {
		if clock == nil {
			return fmt.Errorf("clock is required")
		}
		o.clock = clock
		return nil
	}
}

// WithLocation sets the time zone that decides which calendar day a submission belongs to
func WithLocation(loc *time.Location) ServiceOption {
	return func(o *serviceOptions) error {
		if loc == nil {
			return fmt.Errorf("location is required")
		}
		o.location = loc
		return nil
	}
}

// WithStrictValidation rejects schema-invalid catalogs unless a submission overrides it
func WithStrictValidation(strict bool) ServiceOption {
	return func(o *serviceOptions) error {
		o.strict = strict
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(o *serviceOptions) error {
		o.tracer = tracer
		return nil
	}
}

// WithCatalogMetrics records the dataset count of every accepted catalog.
// A nil value disables recording.
func WithCatalogMetrics(metrics *telemetry.CatalogMetrics) ServiceOption {
	return func(o *serviceOptions) error {
		o.metrics = metrics
		return nil
	}
}

// catalogService implements the Service interface
type catalogService struct {
	repo      Repository
	store     *storage.Storage
	inputs    *ingest.InputValidator
	validator catalog.Validator

	clock    func() time.Time
	location *time.Location
	strict   bool
	tracer   trace.Tracer
	metrics  *telemetry.CatalogMetrics
}

var _ Service = (*catalogService)(nil)

// New creates a Service over the given repository and file storage
func New(
	repo Repository,
	store *storage.Storage,
	inputs *ingest.InputValidator,
	validator catalog.Validator,
	opts ...ServiceOption,
) (Service, error) {
	switch {
	case repo == nil:
		return nil, fmt.Errorf("repository is required")
	case store == nil:
		return nil, fmt.Errorf("storage is required")
	case inputs == nil:
		return nil, fmt.Errorf("input validator is required")
	case validator == nil:
		return nil, fmt.Errorf("catalog validator is required")
	}

	o := &serviceOptions{
		clock:    time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return &catalogService{
		repo:      repo,
		store:     store,
		inputs:    inputs,
		validator: validator,
		clock:     o.clock,
		location:  o.location,
		strict:    o.strict,
		tracer:    o.tracer,
		metrics:   o.metrics,
	}, nil
}

// ValidateNodeIdentifier checks the node identifier syntax
func ValidateNodeIdentifier(identifier string) error {
	if !config.NodeIdentifierPattern.MatchString(identifier) {
		return fmt.Errorf("%w: %q", ErrInvalidNodeIdentifier, identifier)
	}
	return nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *catalogService) CheckReadiness(ctx context.Context) error {
	return s.repo.CheckReadiness(ctx)
}

// RegisterNode creates or updates a node
func (s *catalogService) RegisterNode(ctx context.Context, node *Node) (*Node, error) {
	if node == nil {
		return nil, fmt.Errorf("node is required")
	}
	if err := ValidateNodeIdentifier(node.Identifier); err != nil {
		return nil, err
	}
	return s.repo.UpsertNode(ctx, node)
}

// GetNode returns a node by identifier
func (s *catalogService) GetNode(ctx context.Context, identifier string) (*Node, error) {
	return s.repo.GetNode(ctx, identifier)
}

// ListNodes returns every node
func (s *catalogService) ListNodes(ctx context.Context) ([]*Node, error) {
	return s.repo.ListNodes(ctx)
}

// today is the current calendar day in the configured time zone, as a UTC midnight
func (s *catalogService) today() time.Time {
	y, m, d := s.clock().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SubmitCatalog resolves, parses and stores a catalog. The file, its archive
// copy and its rendition in the other format are staged first, the day's row is
// upserted under the node lock, then the staged files replace the canonical
// ones before the row is committed.
func (s *catalogService) SubmitCatalog(
	ctx context.Context,
	node string,
	submission ingest.Submission,
	opts ...Option[SubmitCatalogOptions],
) (*Record, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "catalogService.SubmitCatalog",
		trace.WithAttributes(otel.AttrNodeIdentifier.String(node)))
	defer span.End()

	options := &SubmitCatalogOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}
	strict := s.strict
	if options.Strict != nil {
		strict = *options.Strict
	}

	if _, err := s.repo.GetNode(ctx, node); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	payload, err := s.inputs.Resolve(ctx, submission)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrCatalogFormat.String(payload.Format.String()))

	doc, err := catalog.Parse(payload.Reader(), payload.Format)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedCatalog, err)
		otel.RecordError(span, err)
		return nil, err
	}

	if strict && !s.validator.IsValid(doc) {
		messages := s.validator.Validate(doc).Messages()
		span.SetAttributes(otel.AttrValidationErrors.Int(len(messages)))
		err := &SchemaInvalidError{Messages: messages}
		otel.RecordError(span, err)
		return nil, err
	}

	day := s.today()
	canonical, err := storage.CatalogPath(node, payload.Format)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	archive, err := storage.ArchivePath(node, day, payload.Format)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	entries := []storage.Entry{
		{Path: canonical, Data: payload.Data},
		{Path: archive, Data: payload.Data},
	}
	if complement, ok := s.renderComplement(ctx, node, payload.Format, doc); ok {
		entries = append(entries, complement)
	}

	staged, err := s.store.Stage(node, entries...)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	record, err := s.repo.SaveCatalog(ctx, CatalogUpload{
		Node:       node,
		Format:     payload.Format,
		UploadedOn: day,
		FilePath:   archive,
	}, staged.Promote)
	// Discard is a no-op once the files were promoted
	staged.Discard()
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	s.bindRecord(record)
	record.prime(doc)
	s.metrics.RecordDatasetsTotal(ctx, node, int64(len(doc.Datasets())))

	slog.InfoContext(ctx, "Catalog accepted",
		"node", node,
		"format", payload.Format,
		"uploaded_on", day.Format(time.DateOnly),
		"request_id", middleware.GetReqID(ctx))

	return record, nil
}

// renderComplement renders the catalog in the other supported format as an
// entry for its canonical path. Failures are only logged and yield no entry.
func (s *catalogService) renderComplement(
	ctx context.Context,
	node string,
	format catalog.Format,
	doc *catalog.Document,
) (storage.Entry, bool) {
	other := format.Other()

	var buf bytes.Buffer
	var err error
	switch other {
	case catalog.FormatXLSX:
		err = catalog.RenderXLSX(doc, &buf)
	case catalog.FormatJSON:
		var data []byte
		data, err = json.MarshalIndent(doc.Raw(), "", "  ")
		buf.Write(data)
	}
	var path string
	if err == nil {
		path, err = storage.CatalogPath(node, other)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to render catalog in complementary format",
			"node", node, "format", other, "error", err)
		return storage.Entry{}, false
	}
	return storage.Entry{Path: path, Data: buf.Bytes()}, true
}

func (s *catalogService) bindRecord(r *Record) {
	path := s.store.LocalPath(r.FilePath)
	r.bind(s.validator, func() (*catalog.Document, error) {
		return s.validator.Parse(path)
	})
}

// LatestCatalog returns the node's most recent catalog record
func (s *catalogService) LatestCatalog(ctx context.Context, node string) (*Record, error) {
	if _, err := s.repo.GetNode(ctx, node); err != nil {
		return nil, err
	}
	record, err := s.repo.LatestCatalog(ctx, node)
	if err != nil {
		return nil, err
	}
	s.bindRecord(record)
	return record, nil
}

// ListCatalogs returns the node's catalog history, newest first
func (s *catalogService) ListCatalogs(ctx context.Context, node string) ([]*Record, error) {
	if _, err := s.repo.GetNode(ctx, node); err != nil {
		return nil, err
	}
	records, err := s.repo.ListCatalogs(ctx, node)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		s.bindRecord(r)
	}
	return records, nil
}

// OpenCatalog opens the canonical file of the node's latest catalog
func (s *catalogService) OpenCatalog(ctx context.Context, node string) (io.ReadSeekCloser, *Record, error) {
	record, err := s.LatestCatalog(ctx, node)
	if err != nil {
		return nil, nil, err
	}
	canonical, err := storage.CatalogPath(node, record.Format)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.store.Open(canonical)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: canonical file is missing", ErrNoCatalogUploaded)
		}
		return nil, nil, err
	}
	return f, record, nil
}
