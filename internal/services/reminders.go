package services

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
)

// Reminders is the external reminder collaborator. Implementations must be
// idempotent by reminder ID.
type Reminders interface {
	UpsertReminder(ctx context.Context, r core.Reminder) error
	CancelReminder(ctx context.Context, id string) error
	Reload(ctx context.Context) error
}

// NoopReminders discards reminder requests. Used when no delivery channel
// is configured.
type NoopReminders struct{}

func (NoopReminders) UpsertReminder(ctx context.Context, r core.Reminder) error {
	slog.DebugContext(ctx, "Reminder delivery disabled, dropping upsert", "reminder_id", r.ID)
	return nil
}

func (NoopReminders) CancelReminder(ctx context.Context, id string) error {
	slog.DebugContext(ctx, "Reminder delivery disabled, dropping cancel", "reminder_id", id)
	return nil
}

func (NoopReminders) Reload(context.Context) error { return nil }
