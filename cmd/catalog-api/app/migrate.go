package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/stacklok/opendata-catalog-server/database"
	"github.com/stacklok/opendata-catalog-server/internal/config"
)

// migratorFactory opens a migrator for a connection string; replaced in tests
type migratorFactory func(connString string) (database.Migrator, error)

func newMigrateCmd() *cobra.Command {
	return newMigrateCmdWith(database.NewFromConnectionString)
}

func newMigrateCmdWith(newMigrator migratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	cmd.AddCommand(newMigrateUpCmd(newMigrator))
	cmd.AddCommand(newMigrateDownCmd(newMigrator))
	return cmd
}

func newMigrateUpCmd(newMigrator migratorFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, opts, err := migrationSettings(cmd)
			if err != nil {
				return err
			}

			if !opts.yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Apply migrations to %s@%s:%d/%s?",
					cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)) {
				slog.Info("Migration cancelled by user")
				return nil
			}

			m, err := openMigrator(cfg, newMigrator)
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()

			slog.Info("Applying database migrations...")
			if opts.steps == 0 {
				err = m.Up()
			} else {
				err = m.Steps(opts.steps)
			}
			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			displayMigrationVersion(m, false)
			return nil
		},
	}
}

func newMigrateDownCmd(newMigrator migratorFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  catalog-api migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  catalog-api migrate down --config config.yaml --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, opts, err := migrationSettings(cmd)
			if err != nil {
				return err
			}

			if !opts.yes {
				prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
				if opts.steps > 0 {
					prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?",
						opts.steps)
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
					slog.Info("Migration cancelled")
					return fmt.Errorf("migration cancelled by user")
				}
			}

			m, err := openMigrator(cfg, newMigrator)
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()

			if opts.steps == 0 {
				slog.Warn("Migrating down all steps - this will remove all schema!")
				err = m.Down()
			} else {
				slog.Info("Migrating down", "steps", opts.steps)
				err = m.Steps(-opts.steps)
			}
			if err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					slog.Info("No migrations to revert - database is already at the oldest version")
					return nil
				}
				return fmt.Errorf("migration failed: %w", err)
			}

			displayMigrationVersion(m, opts.steps == 0)
			return nil
		},
	}
}

type migrationOptions struct {
	yes   bool
	steps int
}

func migrationSettings(cmd *cobra.Command) (*config.Config, *migrationOptions, error) {
	v, err := commandSettings(cmd)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database == nil {
		return nil, nil, fmt.Errorf("database configuration is required")
	}

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if numSteps > math.MaxInt32 {
		return nil, nil, fmt.Errorf("number of steps exceeds maximum allowed value")
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get yes flag: %w", err)
	}

	return cfg, &migrationOptions{yes: yes, steps: int(numSteps)}, nil // #nosec G115 -- bounded above
}

func openMigrator(cfg *config.Config, newMigrator migratorFactory) (database.Migrator, error) {
	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}
	m, err := newMigrator(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func displayMigrationVersion(m database.Migrator, emptied bool) {
	version, dirty, err := m.Version()
	if err != nil {
		if emptied && errors.Is(err, migrate.ErrNilVersion) {
			slog.Info("Database schema has been completely removed")
		} else {
			slog.Warn("Failed to get migration version", "error", err)
		}
		return
	}

	if dirty {
		slog.Warn("Database is in a dirty state - manual intervention may be required", "version", version)
	} else {
		slog.Info("Current migration version", "version", version)
	}
}
