// Package cli provides common initialization utilities shared by
// cmd/fintrack and cmd/recurring-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and sets it
// as the slog default. Workers log JSON; the interactive CLI logs text to
// stderr so stdout stays free for command output.
func SetupLogger(cfg *config.Config, component string, json bool) *applog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)

	var out io.Writer = os.Stderr
	if json {
		out = os.Stdout
	}

	logger := applog.New(applog.Config{
		Level:     level,
		Component: component,
		JSON:      json,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GracefulShutdown returns a context that is cancelled on SIGINT or SIGTERM.
// The returned stop function releases the signal handler.
func GracefulShutdown(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Drain waits for the running work to return and only then runs cleanup,
// so resources are never released under an in-flight operation. Cleanup is
// bounded by timeout. The work's error is returned.
func Drain(logger *applog.Logger, timeout time.Duration, wait func() error, cleanup func() error) error {
	err := wait()

	finished := make(chan error, 1)
	go func() {
		if cleanup == nil {
			finished <- nil
			return
		}
		finished <- cleanup()
	}()

	select {
	case cerr := <-finished:
		if cerr != nil {
			logger.Error("Cleanup failed", "error", cerr)
		} else {
			logger.Info("Shutdown complete")
		}
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}

	return err
}
