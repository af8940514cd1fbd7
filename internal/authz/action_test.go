package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{name: "submit catalog", method: http.MethodPost, path: "/v1/nodes/energia/catalog", want: ActionSubmitCatalog},
		{name: "trailing slash", method: http.MethodPost, path: "/v1/nodes/energia/catalog/", want: ActionSubmitCatalog},
		{name: "sync", method: http.MethodPost, path: "/v1/nodes/energia/sync", want: ActionSync},
		{name: "upsert distribution", method: http.MethodPost, path: "/v1/nodes/energia/distributions", want: ActionWriteDistribution},
		{name: "add version", method: http.MethodPost, path: "/v1/nodes/energia/distributions/1.2/versions", want: ActionWriteDistribution},
		{name: "delete distribution", method: http.MethodDelete, path: "/v1/nodes/energia/distributions/1.2", want: ActionDeleteDistribution},
		{name: "delete distribution collection", method: http.MethodDelete, path: "/v1/nodes/energia/distributions", want: ActionAdmin},
		{name: "post on a distribution", method: http.MethodPost, path: "/v1/nodes/energia/distributions/1.2", want: ActionAdmin},
		{name: "put catalog", method: http.MethodPut, path: "/v1/nodes/energia/catalog", want: ActionAdmin},
		{name: "delete version", method: http.MethodDelete, path: "/v1/nodes/energia/distributions/1.2/versions", want: ActionAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RouteAction(tt.method, tt.path))
		})
	}
}
