package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/checklist-api/internal/config"
	"github.com/phrazzld/checklist-api/internal/generation"
	"github.com/phrazzld/checklist-api/internal/platform/gemini"
	"github.com/phrazzld/checklist-api/internal/platform/postgres"
	"github.com/phrazzld/checklist-api/internal/platform/yamlstore"
	"github.com/phrazzld/checklist-api/internal/store"
)

// setupAppDatabase establishes a connection to the database and configures connection pools.
// Returns the database connection if successful, or an error if the connection fails.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}

// storeBackend is the document store selected by configuration together
// with whatever it holds open.
type storeBackend struct {
	docs  store.DocumentStore
	db    *sql.DB
	files *yamlstore.Store
}

// openStore opens the document store named by cfg.Store.Backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storeBackend, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("store backend %q needs database.url", cfg.Store.Backend)
		}
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &storeBackend{docs: postgres.NewChecklistStore(db, logger), db: db}, nil

	case config.StoreBackendFile:
		files, err := yamlstore.New(cfg.Store.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open document directory: %w", err)
		}
		logger.Info("Using file document store", "dir", files.Dir())
		return &storeBackend{docs: files, files: files}, nil

	case config.StoreBackendMemory:
		logger.Warn("Using in-memory document store; checklists are lost on exit")
		return &storeBackend{docs: store.NewMemoryStore()}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// close releases the database connection, if any.
func (b *storeBackend) close(logger *slog.Logger) {
	if b == nil || b.db == nil {
		return
	}
	if err := b.db.Close(); err != nil {
		logger.Error("Error closing database connection", "error", err)
	}
}

// newExecutor creates the LLM executor remarks are run through.
func newExecutor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (generation.Executor, error) {
	executor, err := gemini.NewExecutor(ctx, logger.With("component", "llm_executor"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM executor: %w", err)
	}
	logger.Info("LLM executor initialized", "model", cfg.LLM.ModelName)
	return executor, nil
}
