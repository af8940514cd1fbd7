// Package auth identifies callers of the catalog API.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// RFC 6750 Section 3 error codes
const (
	// errorCodeInvalidRequest indicates the request is missing a required parameter,
	// includes an unsupported parameter or parameter value, or is otherwise malformed.
	errorCodeInvalidRequest = "invalid_request"

	// errorCodeInvalidToken indicates the access token provided is expired, revoked,
	// malformed, or invalid for other reasons.
	errorCodeInvalidToken = "invalid_token"
)

// DefaultRealm is the protection space reported in WWW-Authenticate
const DefaultRealm = "catalog-api"

var (
	errMissingAuthorization = errors.New("authorization header is missing")
	errNotBearer            = errors.New("authorization header is not a bearer token")
)

// bearerMiddleware requires a valid bearer token on every request
type bearerMiddleware struct {
	validator TokenValidator
	realm     string
}

// NewBearerMiddleware creates middleware that rejects requests without a valid
// bearer token and attaches the token subject as the request principal.
func NewBearerMiddleware(validator TokenValidator, realm string) (func(http.Handler) http.Handler, error) {
	if validator == nil {
		return nil, errors.New("token validator is required")
	}
	if realm == "" {
		realm = DefaultRealm
	}
	m := &bearerMiddleware{validator: validator, realm: realm}
	return m.Middleware, nil
}

// Middleware returns an HTTP middleware function that performs authentication.
func (m *bearerMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := extractBearerToken(r)
		if err != nil {
			slog.WarnContext(ctx, "Token extraction failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(ctx))
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidRequest, "missing or malformed authorization header")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			slog.WarnContext(ctx, "Token validation failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(ctx))
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidToken, "token validation failed")
			return
		}

		subject, err := subjectOf(claims)
		if err != nil {
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidToken, "token has no subject")
			return
		}

		slog.DebugContext(ctx, "Authentication successful",
			"subject", subject,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(ctx))
		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, Principal{Subject: subject})))
	})
}

// anonymousMiddleware attaches the anonymous principal to every request
func anonymousMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), AnonymousPrincipal)))
	})
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNotBearer
	}
	return token, nil
}

func subjectOf(claims jwt.MapClaims) (string, error) {
	subject, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("sub claim is empty")
	}
	return subject, nil
}

// sanitizeHeaderValue removes characters that could enable header injection attacks.
// This includes newlines, carriage returns, and unescaped quotes.
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	// Escape quotes for use in quoted-string (RFC 7230)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// writeError writes a JSON error response with RFC 6750 compliant WWW-Authenticate header.
func (m *bearerMiddleware) writeError(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="%s", error_description="%s"`,
		sanitizeHeaderValue(m.realm), errCode, sanitizeHeaderValue(description)))
	w.WriteHeader(status)

	resp := struct {
		Error string `json:"error"`
	}{
		Error: description,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
