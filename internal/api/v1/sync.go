package v1

import (
	"net/http"

	"github.com/stacklok/opendata-catalog-server/internal/api/common"
)

// syncNode handles POST /v1/nodes/{node}/sync
//
// @Summary		Sync a node from its declared source
// @Description	Fetches the node's remote catalog, stores it and, when enabled, its distributions.
// @Description	Per-dataset problems are returned as warnings.
// @Tags		sync
// @Produce		json
// @Param		node	path		string	true	"Node identifier"
// @Success		200		{object}	SyncResponse
// @Failure		400		{object}	common.ErrorResponse	"Sync failed"
// @Failure		403		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router		/v1/nodes/{node}/sync [post]
func (routes *Routes) syncNode(w http.ResponseWriter, r *http.Request) {
	node, ok := routes.authorizeNode(w, r)
	if !ok {
		return
	}

	result, err := routes.sync.Sync(r.Context(), node)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, toSyncResponse(result), http.StatusOK)
}
