package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Namespace is the persistence key of the finance document.
const Namespace = "finance"

// AutoGeneratedNote marks transactions materialized from a recurring rule.
const AutoGeneratedNote = "Auto-generated from recurring transaction"

const groupPrefix = "group-"

const (
	TargetCategory TargetKind = "category"
	TargetGroup    TargetKind = "group"
)

type (
	TargetKind string

	Transaction struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		Category  string    `json:"category"`
		Date      Date      `json:"date"`
		Timestamp time.Time `json:"timestamp"`
		Notes     string    `json:"notes,omitempty"`
		Recurring string    `json:"recurring,omitempty"` // ID of the generating rule

		// RecordedAt is when the transaction entered the ledger, independent
		// of the date it is booked on.
		RecordedAt time.Time `json:"recordedAt,omitempty"`
	}

	// BudgetTarget is either a single category or a named category group.
	BudgetTarget struct {
		Kind TargetKind `json:"kind"`
		Ref  string     `json:"ref"`
	}

	Budget struct {
		ID        string       `json:"id"`
		Target    BudgetTarget `json:"target"`
		Allocated Money        `json:"allocated"`
		Notes     string       `json:"notes,omitempty"`
		CreatedAt time.Time    `json:"createdAt"`
		// ResetAt bounds which expenses count toward spent, by when they were
		// recorded. Zero means all.
		ResetAt time.Time `json:"resetAt,omitempty"`
	}

	Contribution struct {
		ID     string    `json:"id"`
		Amount Money     `json:"amount"`
		Date   time.Time `json:"date"`
	}

	SavingsGoal struct {
		ID            string         `json:"id"`
		Name          string         `json:"name"`
		Target        Money          `json:"target"`
		Current       Money          `json:"current"`
		TargetDate    Date           `json:"targetDate,omitempty"`
		Color         string         `json:"color,omitempty"`
		CreatedAt     time.Time      `json:"createdAt"`
		Contributions []Contribution `json:"contributions"`
	}

	RecurringRule struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Amount         Money     `json:"amount"`
		Category       string    `json:"category"`
		StartDate      Date      `json:"startDate"`
		Frequency      Frequency `json:"frequency"`
		NextDate       Date      `json:"nextDate"`
		Notes          string    `json:"notes,omitempty"`
		CreateReminder bool      `json:"createReminder"`
		ReminderDays   int       `json:"reminderDays"`
	}

	Settings struct {
		Currency string `json:"currency"`
		// ReminderTime is the HH:MM time of day reminders fire at.
		ReminderTime string `json:"reminderTime"`
	}

	// Document is the whole persisted finance namespace. It is read and
	// written as a unit.
	Document struct {
		Transactions   []Transaction   `json:"transactions"`
		Budgets        []Budget        `json:"budgets"`
		SavingsGoals   []SavingsGoal   `json:"savingsGoals"`
		RecurringRules []RecurringRule `json:"recurringTransactions"`
		Categories     CategoryCatalog `json:"categories"`
		Settings       Settings        `json:"settings"`

		// Revision is owned by the store and used for optimistic concurrency.
		Revision int64 `json:"-"`
	}
)

// DefaultSettings returns the settings of a fresh document.
func DefaultSettings() Settings {
	return Settings{Currency: "USD", ReminderTime: "09:00"}
}

// NewDocument returns an empty document seeded with default categories.
func NewDocument() *Document {
	return &Document{
		Transactions:   []Transaction{},
		Budgets:        []Budget{},
		SavingsGoals:   []SavingsGoal{},
		RecurringRules: []RecurringRule{},
		Categories:     DefaultCategories(),
		Settings:       DefaultSettings(),
	}
}

// Normalize fills collections and settings left empty by older documents.
func (d *Document) Normalize() {
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.Budgets == nil {
		d.Budgets = []Budget{}
	}
	if d.SavingsGoals == nil {
		d.SavingsGoals = []SavingsGoal{}
	}
	if d.RecurringRules == nil {
		d.RecurringRules = []RecurringRule{}
	}
	if len(d.Categories.Income) == 0 && len(d.Categories.Expense) == 0 {
		d.Categories = DefaultCategories()
	}
	if d.Settings.Currency == "" {
		d.Settings.Currency = DefaultSettings().Currency
	}
	if d.Settings.ReminderTime == "" {
		d.Settings.ReminderTime = DefaultSettings().ReminderTime
	}
}

func (d *Document) TransactionIndex(id string) int {
	for i := range d.Transactions {
		if d.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) BudgetIndex(id string) int {
	for i := range d.Budgets {
		if d.Budgets[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) SavingsGoalIndex(id string) int {
	for i := range d.SavingsGoals {
		if d.SavingsGoals[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) RecurringRuleIndex(id string) int {
	for i := range d.RecurringRules {
		if d.RecurringRules[i].ID == id {
			return i
		}
	}
	return -1
}

// Recorded returns RecordedAt, falling back to Timestamp for transactions
// written before it was tracked.
func (t Transaction) Recorded() time.Time {
	if t.RecordedAt.IsZero() {
		return t.Timestamp
	}
	return t.RecordedAt
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("%w: amount cannot be zero", ErrInvalidAmount)
	}
	if err := t.Date.Validate(); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	return nil
}

// ParseBudgetTarget decodes the legacy string form: "group-<name>" for a
// group budget, anything else is a category id.
func ParseBudgetTarget(s string) (BudgetTarget, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, groupPrefix); ok {
		t := BudgetTarget{Kind: TargetGroup, Ref: rest}
		return t, t.Validate()
	}
	t := BudgetTarget{Kind: TargetCategory, Ref: s}
	return t, t.Validate()
}

func CategoryTarget(id string) BudgetTarget { return BudgetTarget{Kind: TargetCategory, Ref: id} }
func GroupTarget(name string) BudgetTarget  { return BudgetTarget{Kind: TargetGroup, Ref: name} }

func (t BudgetTarget) Validate() error {
	switch t.Kind {
	case TargetCategory, TargetGroup:
	default:
		return fmt.Errorf("invalid budget target kind %q", t.Kind)
	}
	if strings.TrimSpace(t.Ref) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// String renders the legacy encoding accepted by ParseBudgetTarget.
func (t BudgetTarget) String() string {
	if t.Kind == TargetGroup {
		return groupPrefix + t.Ref
	}
	return t.Ref
}

// Matches reports whether an expense in category counts toward the target.
func (t BudgetTarget) Matches(category string, catalog CategoryCatalog) bool {
	switch t.Kind {
	case TargetCategory:
		return category == t.Ref
	case TargetGroup:
		return catalog.InGroup(category, t.Ref)
	default:
		return false
	}
}

func (b Budget) IsGroupBudget() bool {
	return b.Target.Kind == TargetGroup
}

func (b Budget) Validate() error {
	if err := b.Target.Validate(); err != nil {
		return err
	}
	if err := b.Allocated.Validate(); err != nil {
		return fmt.Errorf("allocated: %w", err)
	}
	return nil
}

// Spent sums the absolute value of matching expenses recorded at or after
// the budget's last reset.
func (b Budget) Spent(txs []Transaction, catalog CategoryCatalog) Money {
	var spent Money
	for _, tx := range txs {
		if !tx.Amount.IsExpense() {
			continue
		}
		if !b.ResetAt.IsZero() && tx.Recorded().Before(b.ResetAt) {
			continue
		}
		if b.Target.Matches(tx.Category, catalog) {
			spent = spent.Add(tx.Amount.Abs())
		}
	}
	return spent
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if g.Current.Cents < 0 {
		return fmt.Errorf("current: %w", ErrInvalidAmount)
	}
	return nil
}

// Progress returns current/target, unbounded above.
func (g SavingsGoal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	return float64(g.Current.Cents) / float64(g.Target.Cents)
}

func (g SavingsGoal) IsComplete() bool {
	return g.Current.Cents >= g.Target.Cents
}

func (r RecurringRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Amount.IsZero() {
		return fmt.Errorf("%w: amount cannot be zero", ErrInvalidAmount)
	}
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.ReminderDays < 0 {
		return errors.New("reminder days cannot be negative")
	}
	return nil
}

// ReminderID is the idempotency key of the rule's external reminder.
func (r RecurringRule) ReminderID() string {
	return "finance-" + r.ID
}

// ReminderDate is the day the reminder for the next occurrence fires.
func (r RecurringRule) ReminderDate() Date {
	return r.NextDate.AddDays(-r.ReminderDays)
}

// Reminder is the payload handed to the external reminder collaborator.
type Reminder struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
	DateKey string `json:"dateKey"`
}

// Reminder builds the rule's reminder for its next occurrence.
func (r RecurringRule) Reminder(settings Settings) Reminder {
	verb := "Payment due"
	if r.Amount.IsIncome() {
		verb = "Income expected"
	}
	return Reminder{
		ID:      r.ReminderID(),
		Label:   fmt.Sprintf("%s: %s (%s) on %s", verb, r.Name, r.Amount.Abs(), r.NextDate),
		Time:    settings.ReminderTime,
		Enabled: r.CreateReminder,
		DateKey: r.ReminderDate().String(),
	}
}
