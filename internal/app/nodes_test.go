package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/config"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	"github.com/stacklok/opendata-catalog-server/internal/service/mocks"
)

func TestProvisionNodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		nodes     []config.NodeConfig
		setupMock func(*mocks.MockService, *[]*service.Node)
		want      []*service.Node
		wantErr   string
	}{
		{
			name:      "no nodes",
			setupMock: func(*mocks.MockService, *[]*service.Node) {},
		},
		{
			name: "node without source",
			nodes: []config.NodeConfig{
				{Identifier: "modernizacion", Admins: []string{"alice", "bob"}},
			},
			setupMock: func(m *mocks.MockService, registered *[]*service.Node) {
				m.EXPECT().RegisterNode(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, node *service.Node) (*service.Node, error) {
						*registered = append(*registered, node)
						return node, nil
					})
			},
			want: []*service.Node{
				{Identifier: "modernizacion", Admins: []string{"alice", "bob"}},
			},
		},
		{
			name: "node with source",
			nodes: []config.NodeConfig{
				{
					Identifier: "energia",
					Source: &config.NodeSourceConfig{
						URL:               "https://datos.example.org/catalog.xlsx",
						Format:            "XLSX",
						SyncDistributions: true,
					},
				},
				{
					Identifier: "salud",
					Source:     &config.NodeSourceConfig{URL: "https://datos.example.org/salud"},
				},
			},
			setupMock: func(m *mocks.MockService, registered *[]*service.Node) {
				m.EXPECT().RegisterNode(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, node *service.Node) (*service.Node, error) {
						*registered = append(*registered, node)
						return node, nil
					}).Times(2)
			},
			want: []*service.Node{
				{
					Identifier: "energia",
					Source: &service.NodeSource{
						URL:               "https://datos.example.org/catalog.xlsx",
						Format:            catalog.FormatXLSX,
						SyncDistributions: true,
					},
				},
				{
					Identifier: "salud",
					Source:     &service.NodeSource{URL: "https://datos.example.org/salud"},
				},
			},
		},
		{
			name: "unknown source format",
			nodes: []config.NodeConfig{
				{
					Identifier: "energia",
					Source:     &config.NodeSourceConfig{URL: "https://datos.example.org/catalog.csv", Format: "csv"},
				},
			},
			setupMock: func(*mocks.MockService, *[]*service.Node) {},
			wantErr:   "node 'energia'",
		},
		{
			name: "register fails",
			nodes: []config.NodeConfig{
				{Identifier: "modernizacion"},
			},
			setupMock: func(m *mocks.MockService, _ *[]*service.Node) {
				m.EXPECT().RegisterNode(gomock.Any(), gomock.Any()).Return(nil, service.ErrInvalidNodeIdentifier)
			},
			wantErr: "failed to register node 'modernizacion'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockService(ctrl)

			var registered []*service.Node
			tt.setupMock(svc, &registered)

			err := ProvisionNodes(context.Background(), svc, tt.nodes)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, registered)
		})
	}
}

func TestProvisionNodes_RequiresService(t *testing.T) {
	t.Parallel()
	err := ProvisionNodes(context.Background(), nil, nil)
	require.Error(t, err)
}
