package v1

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/stacklok/opendata-catalog-server/internal/api/common"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

// upsertDistribution handles POST /v1/nodes/{node}/distributions
//
// @Summary		Upload a distribution version
// @Description	Stores a new version of a distribution, creating the distribution on first upload.
// @Description	The dataset must be declared by the node's latest catalog.
// @Tags		distributions
// @Accept		multipart/form-data
// @Produce		json
// @Param		node					path		string	true	"Node identifier"
// @Param		dataset_identifier		formData	string	true	"Dataset identifier"
// @Param		distribution_identifier	formData	string	true	"Distribution identifier"
// @Param		file_name				formData	string	false	"Stored file name"
// @Param		file					formData	file	false	"Distribution file"
// @Param		url						formData	string	false	"Remote distribution URL"
// @Success		201		{object}	service.Distribution
// @Failure		400		{object}	common.ErrorResponse
// @Failure		403		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/distributions [post]
func (routes *Routes) upsertDistribution(w http.ResponseWriter, r *http.Request) {
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

	dist, err := routes.service.UpsertDistribution(r.Context(), node, service.DistributionUpload{
		DatasetIdentifier: form.Value("dataset_identifier"),
		Identifier:        form.Value("distribution_identifier"),
		FileName:          form.Value("file_name"),
		Source:            form.Source,
	})
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, dist, http.StatusCreated)
}

// addVersion handles POST /v1/nodes/{node}/distributions/{distribution}/versions
//
// @Summary		Upload a new version of an existing distribution
// @Tags		distributions
// @Accept		multipart/form-data
// @Produce		json
// @Param		node			path		string	true	"Node identifier"
// @Param		distribution	path		string	true	"Distribution identifier"
// @Param		file_name		formData	string	false	"Stored file name"
// @Param		file			formData	file	false	"Distribution file"
// @Param		url				formData	string	false	"Remote distribution URL"
// @Success		201		{object}	service.Distribution
// @Failure		400		{object}	common.ErrorResponse
// @Failure		403		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/distributions/{distribution}/versions [post]
func (routes *Routes) addVersion(w http.ResponseWriter, r *http.Request) {
	node, ok := routes.authorizeNode(w, r)
	if !ok {
		return
	}
	distribution, ok := distributionParam(w, r)
	if !ok {
		return
	}

	form, err := routes.parseUploadForm(w, r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer form.Close()

	dist, err := routes.service.AddVersion(r.Context(), node, distribution, service.VersionUpload{
		FileName: form.Value("file_name"),
		Source:   form.Source,
	})
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, dist, http.StatusCreated)
}

// listDistributions handles GET /v1/nodes/{node}/distributions
//
// @Summary		List distributions
// @Description	Lists the node's distributions by identifier, each with its newest versions first.
// @Tags		distributions
// @Produce		json
// @Param		node		path		string	true	"Node identifier"
// @Param		limit		query		int		false	"Maximum number of distributions to return"
// @Param		cursor		query		string	false	"Pagination cursor"
// @Param		versions	query		int		false	"Versions listed per distribution"
// @Success		200		{object}	service.ListDistributionsResult
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/distributions [get]
func (routes *Routes) listDistributions(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	opts := []service.Option[service.ListDistributionsOptions]{}

	if cursor := query.Get("cursor"); cursor != "" {
		if _, err := service.DecodeCursor(cursor); err != nil {
			common.WriteErrorResponse(w, "Invalid cursor parameter", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithCursor(cursor))
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			common.WriteErrorResponse(w, "Invalid limit parameter: must be a positive integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithLimit(limit))
	}
	if versionsStr := query.Get("versions"); versionsStr != "" {
		versions, err := strconv.Atoi(versionsStr)
		if err != nil || versions < 0 {
			common.WriteErrorResponse(w, "Invalid versions parameter: must be a non-negative integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithVersions(versions))
	}

	result, err := routes.service.ListDistributions(r.Context(), node, opts...)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	if result.Distributions == nil {
		result.Distributions = []*service.Distribution{}
	}
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// lastVersions handles GET /v1/nodes/{node}/versions
//
// @Summary		Recent versions per distribution
// @Tags		distributions
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Param		n		query		int		false	"Versions per distribution"
// @Success		200		{object}	map[string][]service.DistributionVersion
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/versions [get]
func (routes *Routes) lastVersions(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}

	n := service.DefaultVersionsPerDistribution
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			common.WriteErrorResponse(w, "Invalid n parameter: must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(parsed, service.MaxVersionsPerDistribution)
	}

	versions, err := routes.service.LastNVersions(r.Context(), node, n)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, versions, http.StatusOK)
}

// downloadDistribution handles GET /v1/nodes/{node}/distributions/{distribution}/download
//
// @Summary		Download the newest version of a distribution
// @Tags		distributions
// @Produce		octet-stream
// @Param		node			path	string	true	"Node identifier"
// @Param		distribution	path	string	true	"Distribution identifier"
// @Success		200
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/distributions/{distribution}/download [get]
func (routes *Routes) downloadDistribution(w http.ResponseWriter, r *http.Request) {
	node, ok := nodeParam(w, r)
	if !ok {
		return
	}
	distribution, ok := distributionParam(w, r)
	if !ok {
		return
	}

	f, version, err := routes.service.OpenLatestVersion(r.Context(), node, distribution)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": version.FileName}))
	http.ServeContent(w, r, version.FileName, version.UploadedAt, f)
}

// deleteDistribution handles DELETE /v1/nodes/{node}/distributions/{distribution}
//
// @Summary		Delete a distribution and all its versions
// @Tags		distributions
// @Param		node			path	string	true	"Node identifier"
// @Param		distribution	path	string	true	"Distribution identifier"
// @Success		204		"No content"
// @Failure		403		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/distributions/{distribution} [delete]
func (routes *Routes) deleteDistribution(w http.ResponseWriter, r *http.Request) {
	node, ok := routes.authorizeNode(w, r)
	if !ok {
		return
	}
	distribution, ok := distributionParam(w, r)
	if !ok {
		return
	}

	if err := routes.service.DeleteDistribution(r.Context(), node, distribution); err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
