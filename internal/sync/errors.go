package sync

import (
	"errors"
	"fmt"

	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

// ErrCatalogSync is matched by *CatalogSyncError
var ErrCatalogSync = errors.New("catalog sync failed")

// Failure reasons
const (
	ReasonNoSource         = "no-source"
	ReasonFetchFailed      = "fetch-failed"
	ReasonValidationFailed = "validation-failed"
	ReasonStorageFailed    = "storage-failed"
)

// CatalogSyncError is a fatal sync failure for one node
type CatalogSyncError struct {
	Node    string
	Reason  string
	Message string
	Err     error
}

func (e *CatalogSyncError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sync of node %s failed (%s): %s", e.Node, e.Reason, e.Message)
	}
	return fmt.Sprintf("sync of node %s failed (%s): %s: %v", e.Node, e.Reason, e.Message, e.Err)
}

func (e *CatalogSyncError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCatalogSync) match
func (*CatalogSyncError) Is(target error) bool {
	return target == ErrCatalogSync
}

// submissionError classifies a failed catalog submission
func submissionError(node string, err error) *CatalogSyncError {
	syncErr := &CatalogSyncError{Node: node, Err: err}
	switch {
	case errors.Is(err, ingest.ErrFetch), errors.Is(err, ingest.ErrPayloadTooLarge):
		syncErr.Reason = ReasonFetchFailed
		syncErr.Message = "failed to download the catalog"
	case errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, service.ErrMalformedCatalog),
		errors.Is(err, service.ErrSchemaInvalid):
		syncErr.Reason = ReasonValidationFailed
		syncErr.Message = "the downloaded catalog is not valid"
	default:
		syncErr.Reason = ReasonStorageFailed
		syncErr.Message = "failed to store the catalog"
	}
	return syncErr
}
