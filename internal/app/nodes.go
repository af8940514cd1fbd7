package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/config"
	"github.com/stacklok/opendata-catalog-server/internal/service"
)

// ProvisionNodes ensures every node declared in the configuration exists with
// its configured administrators and source. It is idempotent and runs on every
// startup, so configuration edits replace what a previous run stored.
func ProvisionNodes(ctx context.Context, svc service.Service, nodes []config.NodeConfig) error {
	if svc == nil {
		return fmt.Errorf("service is required")
	}

	if len(nodes) == 0 {
		slog.Info("No nodes declared in config")
		return nil
	}

	for _, nodeCfg := range nodes {
		node, err := nodeFromConfig(nodeCfg)
		if err != nil {
			return err
		}

		stored, err := svc.RegisterNode(ctx, node)
		if err != nil {
			return fmt.Errorf("failed to register node '%s': %w", nodeCfg.Identifier, err)
		}

		slog.Info("Provisioned node",
			"node", stored.Identifier,
			"id", stored.ID,
			"admins", len(stored.Admins),
			"has_source", stored.Source != nil)
	}

	slog.Info("Nodes provisioned", "count", len(nodes))
	return nil
}

func nodeFromConfig(nodeCfg config.NodeConfig) (*service.Node, error) {
	node := &service.Node{
		Identifier: nodeCfg.Identifier,
		Admins:     nodeCfg.Admins,
	}

	if nodeCfg.Source == nil {
		return node, nil
	}

	source := &service.NodeSource{
		URL:               nodeCfg.Source.URL,
		SyncDistributions: nodeCfg.Source.SyncDistributions,
	}
	if nodeCfg.Source.Format != "" {
		format, err := catalog.ParseFormat(nodeCfg.Source.Format)
		if err != nil {
			return nil, fmt.Errorf("node '%s': %w", nodeCfg.Identifier, err)
		}
		source.Format = format
	}
	node.Source = source

	return node, nil
}
