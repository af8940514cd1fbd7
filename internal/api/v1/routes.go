// Package v1 provides the catalog and distribution endpoints mounted at /v1.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/opendata-catalog-server/internal/api/common"
	"github.com/stacklok/opendata-catalog-server/internal/auth"
	"github.com/stacklok/opendata-catalog-server/internal/authz"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	catalogsync "github.com/stacklok/opendata-catalog-server/internal/sync"
)

// Routes handles HTTP requests for the v1 endpoints.
type Routes struct {
	service       service.Service
	sync          catalogsync.Manager
	auth          func(http.Handler) http.Handler
	authorizer    authz.Authorizer
	maxUploadSize int64
}

// Option configures the v1 routes
type Option func(*Routes)

// WithSyncManager enables POST /nodes/{node}/sync
func WithSyncManager(m catalogsync.Manager) Option {
	return func(r *Routes) {
		r.sync = m
	}
}

// WithAuthMiddleware sets the middleware that identifies callers of mutating endpoints
func WithAuthMiddleware(mw func(http.Handler) http.Handler) Option {
	return func(r *Routes) {
		r.auth = mw
	}
}

// WithAuthorizer sets the policy engine consulted before every mutation
func WithAuthorizer(a authz.Authorizer) Option {
	return func(r *Routes) {
		r.authorizer = a
	}
}

// WithMaxUploadSize caps the size of uploaded files
func WithMaxUploadSize(n int64) Option {
	return func(r *Routes) {
		r.maxUploadSize = n
	}
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.Service, opts ...Option) *Routes {
	routes := &Routes{service: svc}
	for _, opt := range opts {
		opt(routes)
	}
	if routes.auth == nil {
		// Without an explicit middleware every caller is anonymous.
		routes.auth, _ = auth.NewAuthMiddleware(nil)
	}
	if routes.authorizer == nil {
		// The built-in policies always parse.
		routes.authorizer, _ = authz.NewCedarAuthorizer(nil)
	}
	return routes
}

// Router creates and configures the HTTP router for the v1 endpoints.
// Reads are public; every mutation goes through the auth middleware and a
// policy check against the node.
func Router(svc service.Service, opts ...Option) http.Handler {
	routes := NewRoutes(svc, opts...)

	r := chi.NewRouter()

	r.Get("/nodes", routes.listNodes)
	r.Route("/nodes/{node}", func(r chi.Router) {
		r.Get("/catalog", routes.getCatalog)
		r.Get("/catalog/file", routes.downloadCatalog)
		r.Get("/catalog/datasets", routes.listDatasets)
		r.Get("/catalog/validation", routes.validateCatalog)
		r.Get("/catalog/history", routes.listCatalogHistory)
		r.Get("/distributions", routes.listDistributions)
		r.Get("/distributions/{distribution}/download", routes.downloadDistribution)
		r.Get("/versions", routes.lastVersions)

		r.Group(func(r chi.Router) {
			r.Use(routes.auth)
			r.Post("/catalog", routes.submitCatalog)
			r.Post("/distributions", routes.upsertDistribution)
			r.Post("/distributions/{distribution}/versions", routes.addVersion)
			r.Delete("/distributions/{distribution}", routes.deleteDistribution)
			if routes.sync != nil {
				r.Post("/sync", routes.syncNode)
			}
		})
	})

	return r
}

// nodeParam returns the {node} parameter or writes a 400 response
func nodeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	node, err := common.GetNodeParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return node, true
}

// distributionParam returns the {distribution} parameter or writes a 400 response
func distributionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	dist, err := common.GetAndValidateURLParam(r, "distribution")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return dist, true
}

// authorizeNode checks that the caller may perform the request's action on its {node}.
// On failure the response has been written and ok is false.
func (routes *Routes) authorizeNode(w http.ResponseWriter, r *http.Request) (string, bool) {
	node, ok := nodeParam(w, r)
	if !ok {
		return "", false
	}

	n, err := routes.service.GetNode(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return "", false
	}
	action := authz.RouteAction(r.Method, r.URL.Path)
	if err := authz.Require(r.Context(), routes.authorizer, action, node, n.AdminPrincipals()); err != nil {
		p, _ := auth.PrincipalFromContext(r.Context())
		slog.WarnContext(r.Context(), "Rejected node mutation",
			"node", node,
			"action", action,
			"subject", p.Subject,
			"path", r.URL.Path)
		common.WriteServiceError(w, r, err)
		return "", false
	}
	return node, true
}
