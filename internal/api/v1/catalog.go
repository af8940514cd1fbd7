package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/opendata-catalog-server/internal/api/common"
	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

// submitCatalog handles POST /v1/nodes/{node}/catalog
//
// @Summary		Submit a catalog
// @Description	Upload a catalog file or point at a remote one. A same-day resubmission replaces the previous catalog.
// @Tags		catalog
// @Accept		multipart/form-data
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Param		format	formData	string	false	"Catalog format (json or xlsx); inferred when empty"
// @Param		file	formData	file	false	"Catalog file"
// @Param		url		formData	string	false	"Remote catalog URL"
// @Param		strict	formData	bool	false	"Reject catalogs that do not satisfy the schema"
// @Success		201		{object}	SubmitCatalogResponse
// @Failure		400		{object}	common.ErrorResponse
// @Failure		403		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/catalog [post]
func (routes *Routes) submitCatalog(w http.ResponseWriter, r *http.Request) {
	node, ok := routes.authorizeNode(w, r)
	if !ok {
		return
	}

	form, err := routes.parseUploadForm(w, r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer form.Close()

	var opts []service.Option[service.SubmitCatalogOptions]
	strict, set, err := form.Bool("strict")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if set {
		opts = append(opts, service.WithStrict(strict))
	}

	rec, err := routes.service.SubmitCatalog(r.Context(), node, ingest.Submission{
		Format: form.Value("format"),
		Source: form.Source,
	}, opts...)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	messages := nonNil(rec.Validate())
	slog.InfoContext(r.Context(), "Catalog submitted",
		"node", node,
		"format", rec.Format,
		"schema_errors", len(messages),
		"request_id", middleware.GetReqID(r.Context()))

	common.WriteJSONResponse(w, SubmitCatalogResponse{
		Catalog:  toCatalogResponse(rec),
		Valid:    len(messages) == 0,
		Messages: messages,
	}, http.StatusCreated)
}

// getCatalog handles GET /v1/nodes/{node}/catalog
//
// @Summary		Get the latest catalog
// @Tags		catalog
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Success		200		{object}	CatalogResponse
// @Failure		400		{object}	common.ErrorResponse	"No catalog uploaded"
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/catalog [get]
func (routes *Routes) getCatalog(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}
	rec, err := routes.service.LatestCatalog(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, toCatalogResponse(rec), http.StatusOK)
}

// downloadCatalog handles GET /v1/nodes/{node}/catalog/file
//
// @Summary		Download the latest catalog file
// @Tags		catalog
// @Produce		application/json,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param		node	path	string	true	"Node identifier"
// @Success		200
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/catalog/file [get]
func (routes *Routes) downloadCatalog(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}
	f, rec, err := routes.service.OpenCatalog(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	defer f.Close()

	// The canonical file is rewritten in place, so no Last-Modified is sent.
	w.Header().Set("Content-Type", rec.Format.ContentType())
	http.ServeContent(w, r, "data."+rec.Format.String(), time.Time{}, f)
}

// listDatasets handles GET /v1/nodes/{node}/catalog/datasets
//
// @Summary		List the datasets of the latest catalog
// @Tags		catalog
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Success		200		{array}		service.DatasetSummary
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/catalog/datasets [get]
func (routes *Routes) listDatasets(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}
	rec, err := routes.service.LatestCatalog(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	datasets, err := rec.ListDatasets()
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, datasets, http.StatusOK)
}

// validateCatalog handles GET /v1/nodes/{node}/catalog/validation
//
// @Summary		Validate the latest catalog
// @Tags		catalog
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Success		200		{object}	ValidationResponse
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/catalog/validation [get]
func (routes *Routes) validateCatalog(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}
	rec, err := routes.service.LatestCatalog(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	messages := nonNil(rec.Validate())
	common.WriteJSONResponse(w, ValidationResponse{Valid: len(messages) == 0, Errors: messages}, http.StatusOK)
}

// listCatalogHistory handles GET /v1/nodes/{node}/catalog/history
//
// @Summary		List the catalog submissions of a node, newest first
// @Tags		catalog
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Success		200		{array}		CatalogResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/catalog/history [get]
func (routes *Routes) listCatalogHistory(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}
	records, err := routes.service.ListCatalogs(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	out := make([]CatalogResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toCatalogResponse(rec))
	}
	common.WriteJSONResponse(w, out, http.StatusOK)
}

// listNodes handles GET /v1/nodes
//
// @Summary		List nodes
// @Tags		nodes
// @Produce		json
// @Success		200		{array}		NodeResponse
// @Router		/v1/nodes [get]
func (routes *Routes) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := routes.service.ListNodes(r.Context())
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toNodeResponse(n))
	}
	common.WriteJSONResponse(w, out, http.StatusOK)
}
