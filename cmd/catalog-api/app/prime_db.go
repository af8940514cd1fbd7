package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stacklok/opendata-catalog-server/database"
)

func newPrimeDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prime-db [username]",
		Short: "Prime the database with role and user",
		Long: fmt.Sprintf(`Prime the database by creating the required role and user.

This command:
- Creates the role '%s' if it doesn't exist
- Creates a login user (specified as positional argument) or resets its password
- Grants the role to the user
- Reads the password from STDIN

The command uses the --config option to connect to the database.`, database.ServerRole),
		Args: cobra.ExactArgs(1),
		RunE: runPrimeDB,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Bool("dry-run", false, "Print the SQL that would be executed to standard output")
	return cmd
}

func runPrimeDB(cmd *cobra.Command, args []string) error {
	username := args[0]
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}

	primeSQL, err := database.RenderPrimeSQL(username, password)
	if err != nil {
		return err
	}

	if dryRun {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), primeSQL)
		return err
	}

	v, err := commandSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}

	return executePrimeSQL(cmd.Context(), connString, primeSQL)
}

// readPassword reads from the terminal without echo, or from in when stdin is not a terminal
func readPassword(in io.Reader) (string, error) {
	var reader io.Reader = in
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		slog.Info("Reading password from terminal...")
		passwordBytes, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		reader = bytes.NewReader(passwordBytes)
	}

	passwordBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func executePrimeSQL(ctx context.Context, connString, primeSQL string) error {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(ctx); closeErr != nil {
			slog.Error("Error closing database connection", "error", closeErr)
		}
	}()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, primeSQL); err != nil {
		return fmt.Errorf("failed to prime database: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Database primed successfully", "role", database.ServerRole)
	return nil
}
