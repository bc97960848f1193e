package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/checklist-api/internal/config"
	"github.com/phrazzld/checklist-api/internal/platform/postgres"
)

// handleMigrations runs one goose command against the configured database.
// It is called from run when the -migrate flag is set.
func handleMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("migrations need database.url to be set")
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	logger.Info("Executing migrations", "command", command)
	return postgres.Migrate(ctx, db, logger, command)
}
