package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// RecurringProcessor materializes due recurring rules into transactions
type RecurringProcessor struct {
	ledger *LedgerService
}

// NewRecurringProcessor creates a new recurring transaction processor
func NewRecurringProcessor(ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{ledger: ledger}
}

// ProcessRecurringTransactions materializes one transaction for every rule
// whose next date is date and advances those rules. The document is saved
// only if at least one rule fired. A second call for the same date is a
// no-op because every fired rule has moved past it.
func (p *RecurringProcessor) ProcessRecurringTransactions(ctx context.Context, date core.Date) ([]core.Transaction, error) {
	if p.ledger == nil {
		return nil, fmt.Errorf("processor not properly initialized")
	}

	var (
		created []core.Transaction
		fired   []core.RecurringRule
	)

	recordedAt := p.ledger.now()
	doc, err := p.ledger.mutate(ctx, func(doc *core.Document) error {
		for i := range doc.RecurringRules {
			rule := &doc.RecurringRules[i]
			if !rule.NextDate.Equal(date) {
				continue
			}

			next, err := CalculateNextOccurrence(rule.Frequency, rule.StartDate, date)
			if err != nil {
				// Frequencies are validated on write, so this is a corrupted document.
				slog.ErrorContext(ctx, "Skipping recurring rule with unusable schedule",
					applog.FieldRuleID, rule.ID,
					"frequency", rule.Frequency,
					"error", err)
				continue
			}

			tx := materialize(*rule, date, recordedAt)
			doc.Transactions = append(doc.Transactions, tx)
			rule.NextDate = next

			created = append(created, tx)
			fired = append(fired, *rule)

			slog.InfoContext(ctx, "Created transaction from recurring rule",
				applog.FieldRuleID, rule.ID,
				"name", rule.Name,
				applog.FieldAmountCents, rule.Amount.Cents,
				"frequency", rule.Frequency,
				"next_date", next.String())
		}

		if len(created) == 0 {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("process recurring transactions for %s: %w", date, err)
	}

	p.rescheduleReminders(ctx, fired, doc.Settings)

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		applog.FieldOperation, applog.OpProcess,
		applog.FieldDate, date.String(),
		"materialized", len(created))

	return created, nil
}

// CatchUp processes every date from the oldest overdue rule up to today, so
// occurrences missed while nothing was running are still materialized.
func (p *RecurringProcessor) CatchUp(ctx context.Context, today core.Date) ([]core.Transaction, error) {
	doc, err := p.ledger.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("catch up recurring transactions: %w", err)
	}

	from := today
	for _, rule := range doc.RecurringRules {
		if !rule.NextDate.IsZero() && rule.NextDate.Before(from) {
			from = rule.NextDate
		}
	}

	var all []core.Transaction
	for d := from; !d.After(today); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		created, err := p.ProcessRecurringTransactions(ctx, d)
		if err != nil {
			return all, err
		}
		all = append(all, created...)
	}
	return all, nil
}

func (p *RecurringProcessor) rescheduleReminders(ctx context.Context, rules []core.RecurringRule, settings core.Settings) {
	scheduled := 0
	for _, rule := range rules {
		if !rule.CreateReminder {
			continue
		}
		if err := p.ledger.reminders.UpsertReminder(ctx, rule.Reminder(settings)); err != nil {
			slog.ErrorContext(ctx, "Failed to reschedule reminder",
				applog.FieldRuleID, rule.ID,
				applog.FieldError, err)
			continue
		}
		scheduled++
	}

	if scheduled == 0 {
		return
	}
	if err := p.ledger.reminders.Reload(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to reload reminders", "error", err)
	}
}

func materialize(rule core.RecurringRule, date core.Date, recordedAt time.Time) core.Transaction {
	return core.Transaction{
		ID:         newID(),
		Name:       rule.Name,
		Amount:     rule.Amount,
		Category:   rule.Category,
		Date:       date,
		Timestamp:  date.Time,
		Notes:      core.AutoGeneratedNote,
		Recurring:  rule.ID,
		RecordedAt: recordedAt,
	}
}
