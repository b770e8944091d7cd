// Package backend assembles the ledger services on top of a storage backend
// and an optional reminder channel.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// CleanupFunc releases the resources held by a Backend.
type CleanupFunc func() error

// Backend bundles the services shared by the CLI and the recurring worker.
type Backend struct {
	Ledger    *services.LedgerService
	Processor *services.RecurringProcessor
	Stats     *services.StatsService
	Insights  *services.InsightService
	Moods     *storage.MoodRepository

	Cleanup CleanupFunc
}

// New creates a Backend for the configured storage type.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	var (
		store    storage.NamespaceStore
		closers  []func() error
		cacheMgr = cache.NewManager()
	)

	switch cfg.Type {
	case SQLiteBackend:
		if cfg.SQLiteDBPath == "" {
			return nil, fmt.Errorf("SQLite database path is required")
		}
		sqliteStore, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite store: %w", err)
		}
		store = sqliteStore
		closers = append(closers, sqliteStore.Close)
		slog.InfoContext(ctx, "Using SQLite backend", "path", cfg.SQLiteDBPath)
	case MemoryBackend:
		store = storage.NewMemoryStore()
		slog.InfoContext(ctx, "Using in-memory backend, data will not survive the process")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	reminders, closeReminders := newReminders(ctx, cfg)
	if closeReminders != nil {
		closers = append(closers, closeReminders)
	}

	size := cfg.StatsCacheSize
	if size < 1 {
		size = 1
	}
	ttl := cfg.StatsCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	statsCache := cache.NewLRUCache[core.FinancialStats](size, ttl)
	cacheMgr.Register(statsCache)
	cacheMgr.StartCleanup(ttl)

	thresholds := cfg.Thresholds
	if thresholds.Daily.IsZero() || thresholds.Category.IsZero() {
		thresholds = services.DefaultCorrelationThresholds()
	}

	docs := storage.NewLedgerStore(store)
	moods := storage.NewMoodRepository(store)
	ledger := services.NewLedgerService(docs, reminders)
	stats := services.NewStatsService(docs, statsCache)

	return &Backend{
		Ledger:    ledger,
		Processor: services.NewRecurringProcessor(ledger),
		Stats:     stats,
		Insights:  services.NewInsightService(docs, stats, moods, thresholds),
		Moods:     moods,
		Cleanup: func() error {
			cacheMgr.Stop()
			slog.Debug("Stats cache closed", "hit_ratio", statsCache.HitRatio())

			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

// newReminders connects to AMQP when configured. A failed connection is
// logged and the ledger keeps working without reminders.
func newReminders(ctx context.Context, cfg Config) (services.Reminders, func() error) {
	if cfg.AMQPURL == "" {
		slog.InfoContext(ctx, "AMQP disabled, reminders will not be delivered")
		return services.NoopReminders{}, nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.WarnContext(ctx, "Failed to initialize AMQP client, continuing without reminders", "error", err)
		return services.NoopReminders{}, nil
	}

	slog.InfoContext(ctx, "AMQP client initialized",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, client.Close
}
