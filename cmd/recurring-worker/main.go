package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, applog.ComponentWorker, true)
	logger.Info("Starting recurring-worker", applog.NewFields().WithOperation(applog.OpStartup).ToSlice()...)

	backendCfg, err := backend.ConfigFromApp(cfg, backend.SQLiteBackend)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	be, err := backend.New(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	recurring := worker.NewRecurringWorker(be.Processor, cfg.RecurringInterval)

	g, gctx := errgroup.WithContext(applog.IntoContext(ctx, logger.WithComponent(applog.ComponentScheduler)))
	g.Go(func() error {
		return recurring.Run(gctx)
	})

	if err := cli.Drain(logger, 30*time.Second, g.Wait, be.Cleanup); err != nil {
		logger.Error("Recurring worker failed", applog.NewFields().WithOperation(applog.OpShutdown).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	logger.Info("Recurring-worker shutdown complete")
}
