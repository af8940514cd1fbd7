package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/opendata-catalog-server/internal/app"
	catalogsync "github.com/stacklok/opendata-catalog-server/internal/sync"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull node catalogs from their published sources",
		Long: `Fetch the catalog each node publishes at its configured source URL and submit it
as that node's catalog for today. With --node only that node is synced, otherwise
every node declaring a source is.

Results are written to standard output as JSON.`,
		RunE: runSync,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().String("node", "", "Sync a single node")
	return cmd
}

// syncOutcome is one line of sync output
type syncOutcome struct {
	Node   string              `json:"node"`
	Result *catalogsync.Result `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func runSync(cmd *cobra.Command, _ []string) error {
	v, err := commandSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := catalogapp.NewCatalogApp(ctx, catalogapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() {
		if err := app.Stop(5 * time.Second); err != nil {
			slog.Warn("Failed to release resources", "error", err)
		}
	}()

	return syncNodes(ctx, app.GetComponents().SyncManager, v.GetString("node"), cmd.OutOrStdout())
}

func syncNodes(ctx context.Context, manager catalogsync.Manager, node string, out io.Writer) error {
	var outcomes []syncOutcome
	if node != "" {
		result, err := manager.Sync(ctx, node)
		if err != nil {
			return fmt.Errorf("failed to sync node %s: %w", node, err)
		}
		outcomes = append(outcomes, syncOutcome{Node: node, Result: result})
	} else {
		results, err := manager.SyncAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to sync nodes: %w", err)
		}
		for _, r := range results {
			outcome := syncOutcome{Node: r.Node, Result: r.Result}
			if r.Err != nil {
				outcome.Error = r.Err.Error()
			}
			outcomes = append(outcomes, outcome)
		}
	}

	failed := 0
	enc := json.NewEncoder(out)
	for _, o := range outcomes {
		if o.Error != "" {
			failed++
		}
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("failed to write sync result: %w", err)
		}
	}

	slog.Info("Sync finished", "nodes", len(outcomes), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d node syncs failed", failed, len(outcomes))
	}
	return nil
}
