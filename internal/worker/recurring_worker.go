package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Scheduler is the part of services.RecurringProcessor the worker drives.
type Scheduler interface {
	CatchUp(ctx context.Context, today core.Date) ([]core.Transaction, error)
}

// RecurringWorker runs the recurring scheduler on a fixed interval. Every
// run catches up from the oldest overdue rule, so a tick that lands after
// midnight still fires the previous day's rules exactly once.
type RecurringWorker struct {
	scheduler Scheduler
	interval  time.Duration
	now       func() time.Time
}

func NewRecurringWorker(scheduler Scheduler, interval time.Duration) *RecurringWorker {
	return &RecurringWorker{
		scheduler: scheduler,
		interval:  interval,
		now:       time.Now,
	}
}

// RunOnce processes every due date up to today and returns the number of
// transactions created.
func (w *RecurringWorker) RunOnce(ctx context.Context) (int, error) {
	start := w.now()
	today := core.DateOf(start)

	created, err := w.scheduler.CatchUp(ctx, today)

	fields := applog.NewFields().
		WithComponent(applog.ComponentScheduler).
		WithOperation(applog.OpProcess).
		WithCount(len(created)).
		WithDuration(time.Since(start).Milliseconds())
	fields[applog.FieldDate] = today.String()

	logger := applog.FromContext(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Recurring processing failed", fields.WithError(err).ToSlice()...)
		return len(created), fmt.Errorf("process recurring rules up to %s: %w", today, err)
	}

	logger.InfoContext(ctx, "Recurring processing complete", fields.ToSlice()...)
	return len(created), nil
}

// Run processes due rules immediately and then on every tick until ctx is
// cancelled. Failed runs are logged and retried on the next tick.
func (w *RecurringWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("invalid recurring interval %v", w.interval)
	}

	slog.InfoContext(ctx, "Running initial recurring processing", "interval", w.interval)
	_, _ = w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Recurring worker stopping")
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err == nil {
				slog.DebugContext(ctx, "Next recurring check scheduled",
					"next_check", w.now().Add(w.interval).Format("15:04:05"))
			}
		}
	}
}
