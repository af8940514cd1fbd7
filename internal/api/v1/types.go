package v1

import (
	"time"

	"github.com/stacklok/opendata-catalog-server/internal/service"
	catalogsync "github.com/stacklok/opendata-catalog-server/internal/sync"
)

const dateLayout = "2006-01-02"

// CatalogResponse describes a stored catalog submission
type CatalogResponse struct {
	ID         int64     `json:"id"`
	Node       string    `json:"node"`
	Format     string    `json:"format"`
	UploadedOn string    `json:"uploaded_on" example:"2024-03-01"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubmitCatalogResponse is returned for an accepted catalog
type SubmitCatalogResponse struct {
	Catalog CatalogResponse `json:"catalog"`
	Valid   bool            `json:"valid"`
	// Messages lists schema violations of a catalog accepted in non-strict mode
	Messages []string `json:"messages"`
}

// ValidationResponse is the schema report of the latest catalog
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// NodeResponse is the public view of a node
type NodeResponse struct {
	Identifier string `json:"identifier"`
	SourceURL  string `json:"source_url,omitempty"`
}

// SyncResponse is returned by a successful sync
type SyncResponse struct {
	Node                string           `json:"node"`
	Catalog             *CatalogResponse `json:"catalog,omitempty"`
	DatasetsSynced      int              `json:"datasets_synced"`
	DistributionsSynced int              `json:"distributions_synced"`
	Warnings            []string         `json:"warnings"`
}

func toCatalogResponse(rec *service.Record) CatalogResponse {
	return CatalogResponse{
		ID:         rec.ID,
		Node:       rec.Node,
		Format:     rec.Format.String(),
		UploadedOn: rec.UploadedOn.Format(dateLayout),
		CreatedAt:  rec.CreatedAt,
	}
}

func toNodeResponse(node *service.Node) NodeResponse {
	resp := NodeResponse{Identifier: node.Identifier}
	if node.Source != nil {
		resp.SourceURL = node.Source.URL
	}
	return resp
}

func toSyncResponse(result *catalogsync.Result) SyncResponse {
	resp := SyncResponse{
		Node:                result.Node,
		DatasetsSynced:      result.DatasetsSynced,
		DistributionsSynced: result.DistributionsSynced,
		Warnings:            result.Warnings,
	}
	resp.Warnings = nonNil(resp.Warnings)
	if result.Catalog != nil {
		c := toCatalogResponse(result.Catalog)
		resp.Catalog = &c
	}
	return resp
}

// nonNil keeps empty lists encoded as [] rather than null
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
