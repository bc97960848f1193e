// Package main implements the entry point for the checklist API server,
// which serves collaborative markdown checklists and runs their ai-todo
// remarks through the LLM execution queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/checklist-api/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: ./config.yaml if present)")
	migrateCmd := flag.String("migrate", "", "Run a database migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(*configPath, *migrateCmd); err != nil {
		log.Fatalf("checklist-api: %v", err)
	}
}

// run loads configuration, sets up logging and either runs a migration
// command or serves until SIGINT/SIGTERM.
func run(configPath, migrateCmd string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrateCmd != "" {
		return handleMigrations(ctx, cfg, l, migrateCmd)
	}

	backend, err := openStore(ctx, cfg, l)
	if err != nil {
		return err
	}

	executor, err := newExecutor(ctx, cfg, l)
	if err != nil {
		backend.close(l)
		return err
	}

	app, err := newApplication(cfg, l, backend, executor)
	if err != nil {
		backend.close(l)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	slog.Info("starting checklist API", "port", cfg.Server.Port, "store", cfg.Store.Backend)
	return app.Run(ctx)
}
