package service

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/ingest"
)

// Node is a publishing organization
type Node struct {
	ID         uuid.UUID   `json:"id"`
	Identifier string      `json:"identifier"`
	Admins     []string    `json:"admins,omitempty"`
	Source     *NodeSource `json:"source,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NodeSource is the remote catalog a node publishes, used by sync
type NodeSource struct {
	URL string `json:"url"`
	// Format is empty when it should be inferred from the response
	Format            catalog.Format `json:"format,omitempty"`
	SyncDistributions bool           `json:"sync_distributions"`
}

// AdminPrincipals returns the principals allowed to modify the node
func (n *Node) AdminPrincipals() []string {
	return n.Admins
}

// CatalogUpload is the row written for an accepted submission
type CatalogUpload struct {
	Node       string
	Format     catalog.Format
	UploadedOn time.Time
	FilePath   string
}

// Record is one accepted catalog submission. Its document is parsed from the
// stored file on first access and kept for the lifetime of the instance.
type Record struct {
	ID         int64
	Node       string
	Format     catalog.Format
	UploadedOn time.Time
	FilePath   string
	CreatedAt  time.Time

	mu        sync.Mutex
	computed  bool
	doc       *catalog.Document
	parseErr  error
	load      func() (*catalog.Document, error)
	validator catalog.Validator
}

// DatasetSummary is the listing view of a dataset
type DatasetSummary struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

func (r *Record) bind(validator catalog.Validator, load func() (*catalog.Document, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = validator
	r.load = load
}

// prime seeds the parsed document, skipping the first read from disk
func (r *Record) prime(doc *catalog.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc, r.parseErr, r.computed = doc, nil, true
}

// ParsedDocument returns the parsed catalog, reading it on first use
func (r *Record) ParsedDocument() (*catalog.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.computed {
		if r.load == nil {
			r.parseErr = fmt.Errorf("%w: record %d has no readable file", ErrMalformedCatalog, r.ID)
		} else {
			doc, err := r.load()
			if err != nil {
				r.parseErr = fmt.Errorf("%w: %w", ErrMalformedCatalog, err)
			}
			r.doc = doc
		}
		r.computed = true
	}
	return r.doc, r.parseErr
}

// sameUpload reports whether r and other describe the same stored submission
func (r *Record) sameUpload(other *Record) bool {
	if r == nil || other == nil {
		return false
	}
	return r.ID == other.ID &&
		r.Node == other.Node &&
		r.FilePath == other.FilePath &&
		r.CreatedAt.Equal(other.CreatedAt)
}

// ListDatasets returns the identifier and title of every dataset in the catalog
func (r *Record) ListDatasets() ([]DatasetSummary, error) {
	doc, err := r.ParsedDocument()
	if err != nil {
		return nil, err
	}
	datasets := doc.Datasets()
	out := make([]DatasetSummary, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, DatasetSummary{Identifier: ds.Identifier, Title: ds.Title})
	}
	return out, nil
}

// HasDataset reports whether the catalog declares the dataset
func (r *Record) HasDataset(identifier string) (bool, error) {
	doc, err := r.ParsedDocument()
	if err != nil {
		return false, err
	}
	_, ok := doc.Dataset(identifier)
	return ok, nil
}

// Report returns the structured schema report for the catalog
func (r *Record) Report() (*catalog.Report, error) {
	doc, err := r.ParsedDocument()
	if err != nil {
		return nil, err
	}
	if r.validator == nil {
		return nil, fmt.Errorf("record %d has no validator", r.ID)
	}
	return r.validator.Validate(doc), nil
}

// Validate returns every schema violation as a flat list, catalog-level messages
// first. A catalog that cannot be parsed yields a single generic message.
func (r *Record) Validate() []string {
	report, err := r.Report()
	if err != nil {
		return []string{GenericValidationMessage}
	}
	return report.Messages()
}

// Distribution is a downloadable resource of a dataset
type Distribution struct {
	ID                int64                 `json:"-"`
	Node              string                `json:"node"`
	DatasetIdentifier string                `json:"dataset_identifier"`
	Identifier        string                `json:"identifier"`
	FileName          string                `json:"file_name"`
	CreatedAt         time.Time             `json:"created_at"`
	Versions          []DistributionVersion `json:"versions"`
}

// DistributionVersion is one uploaded file of a distribution. Versions are immutable.
type DistributionVersion struct {
	ID                     int64     `json:"id"`
	DistributionIdentifier string    `json:"distribution_identifier"`
	UploadedAt             time.Time `json:"uploaded_at"`
	FilePath               string    `json:"file_path"`
	FileName               string    `json:"file_name"`
}

// NewVersion is what the repository records for a version upload
type NewVersion struct {
	Node              string
	DatasetIdentifier string
	Identifier        string
	FileName          string
	UploadedAt        time.Time
	FilePath          string
}

// DistributionUpload is a request to store a version of a possibly new distribution
type DistributionUpload struct {
	DatasetIdentifier string
	Identifier        string
	// FileName defaults to the uploaded file name or the last URL path segment
	FileName string
	Source   ingest.Source
	// Catalog is the caller's copy of the node's latest record. It is checked
	// instead of re-reading the stored catalog while it is still the latest.
	Catalog *Record
}

// VersionUpload is a request to store a version of an existing distribution
type VersionUpload struct {
	// FileName defaults to the uploaded file name, then the distribution's current file name
	FileName string
	Source   ingest.Source
}

// ListDistributionsResult is a page of distributions
type ListDistributionsResult struct {
	Distributions []*Distribution `json:"distributions"`
	NextCursor    string          `json:"next_cursor,omitempty"`
}

// SortVersions orders versions newest first, by upload time then id
func SortVersions(versions []DistributionVersion) {
	slices.SortStableFunc(versions, func(a, b DistributionVersion) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
