package service

import (
	"fmt"
)

const (
	// DefaultPageSize is the default number of distributions per page
	DefaultPageSize = 50
	// MaxPageSize caps the number of distributions per page
	MaxPageSize = 500
	// DefaultVersionsPerDistribution is how many versions are listed per distribution by default
	DefaultVersionsPerDistribution = 5
	// MaxVersionsPerDistribution caps the versions listed per distribution
	MaxVersionsPerDistribution = 100
)

// Option is a function that sets an option for the SubmitCatalog or ListDistributions operation
type Option[T SubmitCatalogOptions | ListDistributionsOptions] func(*T) error

// SubmitCatalogOptions is the options for the SubmitCatalog operation
type SubmitCatalogOptions struct {
	// Strict rejects catalogs that do not satisfy the schema. Nil means the service default.
	Strict *bool
}

// ListDistributionsOptions is the options for the ListDistributions operation
type ListDistributionsOptions struct {
	Cursor   string
	Limit    int
	Versions int
}

// WithStrict overrides the service's strict validation setting for one submission
func WithStrict(strict bool) Option[SubmitCatalogOptions] {
	return func(o *SubmitCatalogOptions) error {
		o.Strict = &strict
		return nil
	}
}

// WithCursor sets the cursor for the ListDistributions operation
func WithCursor(cursor string) Option[ListDistributionsOptions] {
	return func(o *ListDistributionsOptions) error {
		if cursor == "" {
			return fmt.Errorf("invalid cursor: %s", cursor)
		}
		o.Cursor = cursor
		return nil
	}
}

// WithLimit sets the page size for the ListDistributions operation
func WithLimit(limit int) Option[ListDistributionsOptions] {
	return func(o *ListDistributionsOptions) error {
		if limit <= 0 {
			return fmt.Errorf("invalid limit: %d", limit)
		}
		o.Limit = limit
		return nil
	}
}

// WithVersions sets how many versions are returned per distribution
func WithVersions(versions int) Option[ListDistributionsOptions] {
	return func(o *ListDistributionsOptions) error {
		if versions < 0 {
			return fmt.Errorf("invalid versions: %d", versions)
		}
		o.Versions = versions
		return nil
	}
}
