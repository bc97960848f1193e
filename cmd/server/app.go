package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/checklist-api/internal/config"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/generation"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/service/auth"
	"github.com/phrazzld/checklist-api/internal/task"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend  *storeBackend
	executor generation.Executor

	jwtService       auth.JWTService
	eventEmitter     *events.InMemoryEventEmitter
	hub              *events.Hub
	scheduler        *task.Scheduler
	checklistService service.ChecklistService

	background sync.WaitGroup
}

// newApplication wires the services on top of an opened store and executor.
// Nothing is started until Run.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	backend *storeBackend,
	executor generation.Executor,
) (*application, error) {
	if backend == nil || backend.docs == nil {
		return nil, errors.New("document store cannot be nil")
	}
	if executor == nil {
		return nil, errors.New("executor cannot be nil")
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		backend:  backend,
		executor: executor,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.hub = events.NewHub(events.DefaultSubscriberBuffer, logger)

	policy := workflow.Policy{
		RetryCooldown: cfg.Workflow.RetryCooldown,
		StaleAfter:    cfg.Workflow.StaleAfter,
	}
	repo, err := service.NewRepository(backend.docs, app.eventEmitter, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	schedulerConfig := task.DefaultSchedulerConfig()
	schedulerConfig.QueueSize = cfg.Workflow.QueueSize
	schedulerConfig.StaleAfter = cfg.Workflow.StaleAfter
	schedulerConfig.ExecutionTimeout = cfg.Workflow.ExecutionTimeout
	schedulerConfig.WriteRetryDelay = cfg.Workflow.WriteRetryDelay
	app.scheduler = task.NewScheduler(repo, executor, app.eventEmitter, schedulerConfig, logger)

	// The hub streams every event to clients; the scheduler reacts to
	// resets and checklist changes.
	app.eventEmitter.RegisterHandler(app.hub)
	app.eventEmitter.RegisterHandler(app.scheduler)

	app.checklistService, err = service.NewChecklistService(
		repo,
		app.scheduler,
		service.ContextIdentity{},
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create checklist service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the scheduler and, for the file backend, the directory
// watcher, then serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.scheduler.Start(ctx); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	app.logger.Info("Execution scheduler started", "queued", len(app.scheduler.Status().Queued))

	if app.backend.files != nil {
		app.background.Add(1)
		go func() {
			defer app.background.Done()
			if err := app.backend.files.Watch(ctx, app.eventEmitter); err != nil && ctx.Err() == nil {
				app.logger.Error("Document directory watcher stopped", "error", err)
			}
		}()
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	app.background.Wait()

	if app.hub != nil {
		app.hub.Close()
	}
	app.backend.close(app.logger)

	app.logger.Info("Application shutdown completed")
}
