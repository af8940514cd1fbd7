// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/opendata-catalog-server/internal/service"
)

// GetAndValidateURLParam extracts, decodes, and validates a URL parameter from the request.
// The decoded value must be non-empty and free of whitespace and path separators.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	if strings.TrimSpace(decoded) == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}
	if strings.ContainsAny(decoded, " \t\n\r") {
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	}
	if strings.ContainsAny(decoded, `/\`) {
		return "", fmt.Errorf("%s cannot contain path separators", paramName)
	}

	return decoded, nil
}

// GetNodeParam returns the {node} URL parameter once it is a well-formed node identifier
func GetNodeParam(r *http.Request) (string, error) {
	node, err := GetAndValidateURLParam(r, "node")
	if err != nil {
		return "", err
	}
	if err := service.ValidateNodeIdentifier(node); err != nil {
		return "", err
	}
	return node, nil
}
