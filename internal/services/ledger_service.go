package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// errNoChange aborts a mutation without persisting.
var errNoChange = errors.New("no change")

type (
	TransactionPatch struct {
		Name     *string
		Amount   *core.Money
		Category *string
		Date     *core.Date
		Notes    *string
	}

	BudgetPatch struct {
		Target    *core.BudgetTarget
		Allocated *core.Money
		Notes     *string
	}

	SavingsGoalPatch struct {
		Name       *string
		Target     *core.Money
		TargetDate *core.Date
		Color      *string
	}

	RecurringRulePatch struct {
		Name           *string
		Amount         *core.Money
		Category       *string
		StartDate      *core.Date
		Frequency      *core.Frequency
		Notes          *string
		CreateReminder *bool
		ReminderDays   *int
	}

	// BudgetView is a budget with its spent total derived from the log.
	BudgetView struct {
		core.Budget
		Spent     core.Money `json:"spent"`
		Remaining core.Money `json:"remaining"`
	}
)

// LedgerService owns every mutation of the finance document. Each operation
// is a read-modify-write of the whole document, serialized by mu within the
// process and guarded across processes by the store's revision check.
type LedgerService struct {
	mu        sync.Mutex
	store     storage.DocumentStore
	reminders Reminders
	now       func() time.Time
}

func NewLedgerService(store storage.DocumentStore, reminders Reminders) *LedgerService {
	if reminders == nil {
		reminders = NoopReminders{}
	}
	return &LedgerService{
		store:     store,
		reminders: reminders,
		now:       time.Now,
	}
}

func newID() string {
	return uuid.NewString()
}

func (s *LedgerService) today() core.Date {
	return core.DateOf(s.now())
}

// mutate loads the document, applies fn and saves the result. Returning
// errNoChange from fn skips the save.
func (s *LedgerService) mutate(ctx context.Context, fn func(doc *core.Document) error) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return doc, err
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Document returns the current finance document.
func (s *LedgerService) Document(ctx context.Context) (*core.Document, error) {
	return s.store.Load(ctx)
}

// AddTransaction stores a new transaction at the head of the list. Missing
// id, date and timestamp are filled in.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (*core.Transaction, error) {
	now := s.now()
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.Date.IsZero() {
		tx.Date = core.DateOf(now)
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = effectiveTimestamp(tx.Date, now)
	}
	tx.RecordedAt = now
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("validate transaction: %w", err)
	}

	_, err := s.mutate(ctx, func(doc *core.Document) error {
		doc.Transactions = append([]core.Transaction{tx}, doc.Transactions...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction added",
		applog.FieldOperation, applog.OpCreate,
		"id", tx.ID,
		"name", tx.Name,
		applog.FieldAmountCents, tx.Amount.Cents,
		applog.FieldCategory, tx.Category)

	return &tx, nil
}

// UpdateTransaction applies patch to the transaction with id.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (*core.Transaction, error) {
	var updated core.Transaction
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.TransactionIndex(id)
		if i < 0 {
			return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}

		tx := doc.Transactions[i]
		if patch.Name != nil {
			tx.Name = *patch.Name
		}
		if patch.Amount != nil {
			tx.Amount = *patch.Amount
		}
		if patch.Category != nil {
			tx.Category = *patch.Category
		}
		if patch.Date != nil && !patch.Date.Equal(tx.Date) {
			tx.Date = *patch.Date
			tx.Timestamp = effectiveTimestamp(tx.Date, tx.Timestamp)
		}
		if patch.Notes != nil {
			tx.Notes = *patch.Notes
		}
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("validate transaction: %w", err)
		}

		doc.Transactions[i] = tx
		updated = tx
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", applog.FieldOperation, applog.OpUpdate, "id", id)
	return &updated, nil
}

// DeleteTransaction removes the transaction with id.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.TransactionIndex(id)
		if i < 0 {
			return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		doc.Transactions = append(doc.Transactions[:i], doc.Transactions[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", applog.FieldOperation, applog.OpDelete, "id", id)
	return nil
}

func (s *LedgerService) AddBudget(ctx context.Context, b core.Budget) (*core.Budget, error) {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("validate budget: %w", err)
	}

	_, err := s.mutate(ctx, func(doc *core.Document) error {
		doc.Budgets = append(doc.Budgets, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget added",
		applog.FieldOperation, applog.OpCreate,
		"id", b.ID,
		"target", b.Target.String(),
		"allocated_cents", b.Allocated.Cents)

	return &b, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, id string, patch BudgetPatch) (*core.Budget, error) {
	var updated core.Budget
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.BudgetIndex(id)
		if i < 0 {
			return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
		}

		b := doc.Budgets[i]
		if patch.Target != nil {
			b.Target = *patch.Target
		}
		if patch.Allocated != nil {
			b.Allocated = *patch.Allocated
		}
		if patch.Notes != nil {
			b.Notes = *patch.Notes
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validate budget: %w", err)
		}

		doc.Budgets[i] = b
		updated = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return &updated, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.BudgetIndex(id)
		if i < 0 {
			return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
		}
		doc.Budgets = append(doc.Budgets[:i], doc.Budgets[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// ListBudgets returns every budget with spent derived from the transactions
// recorded since its last reset.
func (s *LedgerService) ListBudgets(ctx context.Context) ([]BudgetView, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	views := make([]BudgetView, 0, len(doc.Budgets))
	for _, b := range doc.Budgets {
		spent := b.Spent(doc.Transactions, doc.Categories)
		views = append(views, BudgetView{
			Budget:    b,
			Spent:     spent,
			Remaining: b.Allocated.Sub(spent),
		})
	}
	return views, nil
}

// ResetAllBudgets starts a new spending period for every budget. Transaction
// history is left untouched.
func (s *LedgerService) ResetAllBudgets(ctx context.Context) (int, error) {
	now := s.now()
	var count int
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		for i := range doc.Budgets {
			doc.Budgets[i].ResetAt = now
		}
		count = len(doc.Budgets)
		if count == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return 0, fmt.Errorf("reset budgets: %w", err)
	}

	slog.InfoContext(ctx, "Budgets reset", applog.FieldOperation, applog.OpReset, applog.FieldCount, count)
	return count, nil
}

func (s *LedgerService) AddSavingsGoal(ctx context.Context, g core.SavingsGoal) (*core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = newID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	if g.Contributions == nil {
		g.Contributions = []core.Contribution{}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("validate savings goal: %w", err)
	}

	_, err := s.mutate(ctx, func(doc *core.Document) error {
		doc.SavingsGoals = append(doc.SavingsGoals, g)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add savings goal: %w", err)
	}

	slog.InfoContext(ctx, "Savings goal added", "id", g.ID, "name", g.Name, "target_cents", g.Target.Cents)
	return &g, nil
}

func (s *LedgerService) UpdateSavingsGoal(ctx context.Context, id string, patch SavingsGoalPatch) (*core.SavingsGoal, error) {
	var updated core.SavingsGoal
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.SavingsGoalIndex(id)
		if i < 0 {
			return fmt.Errorf("savings goal %s: %w", id, core.ErrNotFound)
		}

		g := doc.SavingsGoals[i]
		if patch.Name != nil {
			g.Name = *patch.Name
		}
		if patch.Target != nil {
			g.Target = *patch.Target
		}
		if patch.TargetDate != nil {
			g.TargetDate = *patch.TargetDate
		}
		if patch.Color != nil {
			g.Color = *patch.Color
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("validate savings goal: %w", err)
		}

		doc.SavingsGoals[i] = g
		updated = g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update savings goal: %w", err)
	}
	return &updated, nil
}

// ContributeSavingsGoal adds amount to the goal and records the contribution.
func (s *LedgerService) ContributeSavingsGoal(ctx context.Context, id string, amount core.Money) (*core.SavingsGoal, error) {
	if err := amount.Validate(); err != nil {
		return nil, fmt.Errorf("contribute to savings goal: %w", err)
	}

	now := s.now()
	var updated core.SavingsGoal
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.SavingsGoalIndex(id)
		if i < 0 {
			return fmt.Errorf("savings goal %s: %w", id, core.ErrNotFound)
		}

		g := &doc.SavingsGoals[i]
		g.Current = g.Current.Add(amount)
		g.Contributions = append(g.Contributions, core.Contribution{
			ID:     newID(),
			Amount: amount,
			Date:   now,
		})
		updated = *g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("contribute to savings goal: %w", err)
	}

	slog.InfoContext(ctx, "Savings goal contribution recorded",
		applog.FieldOperation, applog.OpContribute,
		"id", id,
		applog.FieldAmountCents, amount.Cents,
		"current_cents", updated.Current.Cents)

	return &updated, nil
}

func (s *LedgerService) DeleteSavingsGoal(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.SavingsGoalIndex(id)
		if i < 0 {
			return fmt.Errorf("savings goal %s: %w", id, core.ErrNotFound)
		}
		doc.SavingsGoals = append(doc.SavingsGoals[:i], doc.SavingsGoals[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return nil
}

// AddRecurringTransaction validates and stores a rule, computes its first
// due date and schedules its reminder when requested.
func (s *LedgerService) AddRecurringTransaction(ctx context.Context, rule core.RecurringRule) (*core.RecurringRule, error) {
	if rule.ID == "" {
		rule.ID = newID()
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("validate recurring rule: %w", err)
	}

	next, err := initialNextDate(rule, s.today())
	if err != nil {
		return nil, fmt.Errorf("schedule recurring rule: %w", err)
	}
	rule.NextDate = next

	doc, err := s.mutate(ctx, func(doc *core.Document) error {
		doc.RecurringRules = append(doc.RecurringRules, rule)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add recurring rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldRuleID, rule.ID,
		"name", rule.Name,
		"frequency", rule.Frequency,
		"next_date", rule.NextDate.String())

	s.syncReminder(ctx, rule, doc.Settings)
	return &rule, nil
}

func (s *LedgerService) UpdateRecurringTransaction(ctx context.Context, id string, patch RecurringRulePatch) (*core.RecurringRule, error) {
	if patch.Frequency != nil {
		if err := patch.Frequency.Validate(); err != nil {
			return nil, fmt.Errorf("update recurring rule: %w", err)
		}
	}

	today := s.today()
	var updated core.RecurringRule
	doc, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.RecurringRuleIndex(id)
		if i < 0 {
			return fmt.Errorf("recurring rule %s: %w", id, core.ErrNotFound)
		}

		r := doc.RecurringRules[i]
		reschedule := false
		if patch.Name != nil {
			r.Name = *patch.Name
		}
		if patch.Amount != nil {
			r.Amount = *patch.Amount
		}
		if patch.Category != nil {
			r.Category = *patch.Category
		}
		if patch.StartDate != nil && !patch.StartDate.Equal(r.StartDate) {
			r.StartDate = *patch.StartDate
			reschedule = true
		}
		if patch.Frequency != nil && *patch.Frequency != r.Frequency {
			r.Frequency = *patch.Frequency
			reschedule = true
		}
		if patch.Notes != nil {
			r.Notes = *patch.Notes
		}
		if patch.CreateReminder != nil {
			r.CreateReminder = *patch.CreateReminder
		}
		if patch.ReminderDays != nil {
			r.ReminderDays = *patch.ReminderDays
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("validate recurring rule: %w", err)
		}

		if reschedule {
			next, err := initialNextDate(r, today)
			if err != nil {
				return err
			}
			r.NextDate = next
		}

		doc.RecurringRules[i] = r
		updated = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update recurring rule: %w", err)
	}

	s.syncReminder(ctx, updated, doc.Settings)
	return &updated, nil
}

// DeleteRecurringTransaction removes the rule and cancels its reminder.
// Transactions it already materialized are kept.
func (s *LedgerService) DeleteRecurringTransaction(ctx context.Context, id string) error {
	var removed core.RecurringRule
	_, err := s.mutate(ctx, func(doc *core.Document) error {
		i := doc.RecurringRuleIndex(id)
		if i < 0 {
			return fmt.Errorf("recurring rule %s: %w", id, core.ErrNotFound)
		}
		removed = doc.RecurringRules[i]
		doc.RecurringRules = append(doc.RecurringRules[:i], doc.RecurringRules[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}

	if err := s.reminders.CancelReminder(ctx, removed.ReminderID()); err != nil {
		slog.ErrorContext(ctx, "Failed to cancel reminder",
			applog.FieldRuleID, id, "reminder_id", removed.ReminderID(), applog.FieldError, err)
		// Don't fail the request - the rule is already deleted
	}

	slog.InfoContext(ctx, "Recurring rule deleted", applog.FieldOperation, applog.OpDelete, applog.FieldRuleID, id)
	return nil
}

// syncReminder schedules or cancels the rule's reminder. Delivery failures
// are logged; the ledger change has already been persisted.
func (s *LedgerService) syncReminder(ctx context.Context, rule core.RecurringRule, settings core.Settings) {
	var err error
	if rule.CreateReminder {
		err = s.reminders.UpsertReminder(ctx, rule.Reminder(settings))
	} else {
		err = s.reminders.CancelReminder(ctx, rule.ReminderID())
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to sync reminder",
			applog.FieldRuleID, rule.ID,
			"reminder_id", rule.ReminderID(),
			"create_reminder", rule.CreateReminder,
			"error", err)
	}
}

// effectiveTimestamp places a calendar date at the clock time of ref.
func effectiveTimestamp(d core.Date, ref time.Time) time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(),
		ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}
