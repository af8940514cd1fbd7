package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/opendata-catalog-server/internal/auth"
	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	"github.com/stacklok/opendata-catalog-server/internal/storage"
	catalogsync "github.com/stacklok/opendata-catalog-server/internal/sync"
)

const internalErrorMessage = "internal server error"

// badRequestErrors are caused by what the client sent
var badRequestErrors = []error{
	ingest.ErrInputConflict,
	ingest.ErrFetch,
	ingest.ErrUnsupportedFormat,
	ingest.ErrPayloadTooLarge,
	service.ErrMalformedCatalog,
	service.ErrNoCatalogUploaded,
	service.ErrUnknownDataset,
	service.ErrInvalidNodeIdentifier,
	service.ErrInvalidDistribution,
	storage.ErrInvalidPath,
}

var notFoundErrors = []error{
	service.ErrNodeNotFound,
	service.ErrDistributionNotFound,
	service.ErrVersionNotFound,
}

// StatusForError returns the HTTP status a service error maps to
func StatusForError(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSchemaInvalid),
		errors.Is(err, catalogsync.ErrCatalogSync),
		isAny(err, badRequestErrors):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteServiceError maps err to a status code and writes it. Schema violations are
// listed individually. Unclassified errors are logged and reported generically.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		WriteErrorResponse(w, internalErrorMessage, status)
		return
	}

	var schemaErr *service.SchemaInvalidError
	if errors.As(err, &schemaErr) {
		WriteValidationErrorResponse(w, service.ErrSchemaInvalid.Error(), schemaErr.Messages)
		return
	}

	WriteErrorResponse(w, err.Error(), status)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
