// Package main implements the entry point for the schedq server, an HTTP
// service that accepts jobs, executes them on a bounded-concurrency
// scheduler, and persists their lifecycle.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmarkham/schedq/internal/config"
	"github.com/tmarkham/schedq/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("schedq: %v", err)
	}
}

// run loads configuration, assembles the application, and serves until a
// shutdown signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"max_concurrency", cfg.Scheduler.MaxConcurrency,
		"queue_size", cfg.Scheduler.QueueSize,
		"persistent_store", cfg.Database.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
