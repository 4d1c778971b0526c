// Package cli holds the ecocharge command tree.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/database"
	"github.com/iliyamo/ecocharge-reservation/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ecocharge",
	Short: "EV charging reservations with green rewards",
	Long: `ecocharge serves the reservation API, applies the database schema and
loads the badge catalog. Configuration comes from the environment (.env is
read when present) and an optional CONFIG_FILE.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, configures logging and opens the database.
func bootstrap() (config.Config, *sql.DB, error) {
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)
	db, err := database.Open(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, nil
}

func migrate(ctx context.Context, cfg config.Config, db *sql.DB) error {
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema applied", "driver", cfg.DBDriver)
	return nil
}
