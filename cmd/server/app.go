package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmarkham/schedq/internal/config"
	"github.com/tmarkham/schedq/internal/events"
	"github.com/tmarkham/schedq/internal/platform/postgres"
	"github.com/tmarkham/schedq/internal/redact"
	"github.com/tmarkham/schedq/internal/service"
	"github.com/tmarkham/schedq/internal/service/auth"
	"github.com/tmarkham/schedq/internal/store"
	"github.com/tmarkham/schedq/internal/store/memory"
	"github.com/tmarkham/schedq/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when running with the in-memory job store.
	db *sql.DB

	jobStore store.JobStore

	jwtService     auth.JWTService
	apiKeyVerifier auth.APIKeyVerifier

	scheduler    *task.Scheduler
	registry     *task.Registry
	runner       *task.Runner
	eventEmitter events.EventEmitter

	jobService service.JobService
}

// newApplication creates an application instance with all dependencies
// initialized: store, scheduler, task registry, event wiring, and services.
// It also requeues any jobs left unfinished by a previous process.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.apiKeyVerifier = auth.NewBcryptAPIKeyVerifier(cfg.Auth.APIKeyHash)

	if cfg.Database.URL != "" {
		app.db, err = setupAppDatabase(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := runMigrations(app.db, logger); err != nil {
			return nil, err
		}
		app.jobStore = postgres.NewJobStore(app.db)
	} else {
		logger.Warn("no database configured, job history is lost on restart")
		app.jobStore = memory.New()
	}

	schedCfg := task.DefaultSchedulerConfig()
	if cfg.Scheduler.MaxConcurrency > 0 {
		schedCfg.MaxConcurrency = cfg.Scheduler.MaxConcurrency
	}
	schedCfg.QueueSize = cfg.Scheduler.QueueSize
	app.scheduler, err = task.NewScheduler(schedCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	app.scheduler.SetFailureHandler(func(err error) {
		logger.Warn("job execution failed", "error", redact.Error(err))
	})

	app.registry = task.NewRegistry()
	probeFactory := task.NewHTTPProbeTaskFactory(
		nil,
		time.Duration(cfg.Scheduler.ProbeTimeoutSeconds)*time.Second,
		logger,
	)
	if err := app.registry.Register(probeFactory); err != nil {
		return nil, fmt.Errorf("failed to register task factory: %w", err)
	}

	app.runner = task.NewRunner(app.jobStore, app.scheduler, app.registry, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewJobRequestEventHandler(app.registry, app.runner, logger))
	app.eventEmitter = emitter

	app.jobService, err = service.NewJobService(app.jobStore, app.registry, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	if err := app.runner.Recover(ctx); err != nil {
		// Startup continues; unfinished jobs stay pending for a later pass.
		logger.Error("failed to recover unfinished jobs", "error", err)
	}

	logger.Info("application initialized",
		"job_kinds", app.registry.Kinds(),
		"max_concurrency", cfg.Scheduler.MaxConcurrency)
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources: the runner
// drains the scheduler and records final job states before the database
// connection closes.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
