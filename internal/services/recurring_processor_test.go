package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func addRule(t *testing.T, svc *LedgerService, rule core.RecurringRule) *core.RecurringRule {
	t.Helper()
	created, err := svc.AddRecurringTransaction(context.Background(), rule)
	require.NoError(t, err)
	return created
}

func TestRecurringProcessor_FiresExactlyOnce(t *testing.T) {
	svc, _, _ := newTestLedger(t, at(2024, 1, 31, 8))
	ctx := context.Background()
	p := NewRecurringProcessor(svc)

	rule := addRule(t, svc, core.RecurringRule{
		Name:      "Rent",
		Amount:    core.Money{Cents: -90000},
		Category:  "expense-housing",
		StartDate: core.NewDate(2024, 1, 31),
		Frequency: core.Monthly,
	})
	require.Equal(t, "2024-01-31", rule.NextDate.String())

	created, err := p.ProcessRecurringTransactions(ctx, core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, created, 1)

	tx := created[0]
	assert.Equal(t, rule.ID, tx.Recurring)
	assert.Equal(t, core.AutoGeneratedNote, tx.Notes)
	assert.Equal(t, "2024-01-31", tx.Date.String())
	assert.True(t, tx.Timestamp.Equal(core.NewDate(2024, 1, 31).Time))
	assert.Equal(t, rule.Amount, tx.Amount)

	doc, err := svc.Document(ctx)
	require.NoError(t, err)
	revision := doc.Revision
	assert.Equal(t, "2024-02-29", doc.RecurringRules[0].NextDate.String())
	assert.Len(t, doc.Transactions, 1)

	again, err := p.ProcessRecurringTransactions(ctx, core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	assert.NotNil(t, again)
	assert.Empty(t, again)

	doc, err = svc.Document(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Transactions, 1)
	assert.Equal(t, revision, doc.Revision, "no-op processing does not save")
}

func TestRecurringProcessor_OnlyDueRules(t *testing.T) {
	svc, _, _ := newTestLedger(t, at(2024, 3, 1, 8))
	ctx := context.Background()
	p := NewRecurringProcessor(svc)

	addRule(t, svc, core.RecurringRule{Name: "Rent", Amount: core.Money{Cents: -90000}, Category: "expense-housing", StartDate: core.NewDate(2024, 3, 1), Frequency: core.Monthly})
	addRule(t, svc, core.RecurringRule{Name: "Salary", Amount: core.Money{Cents: 300000}, Category: "income-salary", StartDate: core.NewDate(2024, 3, 25), Frequency: core.Monthly})

	created, err := p.ProcessRecurringTransactions(ctx, core.NewDate(2024, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, created)

	created, err = p.ProcessRecurringTransactions(ctx, core.NewDate(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Rent", created[0].Name)
}

func TestRecurringProcessor_CatchUp(t *testing.T) {
	svc, _, _ := newTestLedger(t, at(2024, 3, 1, 8))
	ctx := context.Background()
	p := NewRecurringProcessor(svc)

	addRule(t, svc, core.RecurringRule{
		Name:      "Lunch",
		Amount:    core.Money{Cents: -1200},
		Category:  "expense-dining",
		StartDate: core.NewDate(2024, 3, 1),
		Frequency: core.Daily,
	})

	created, err := p.CatchUp(ctx, core.NewDate(2024, 3, 4))
	require.NoError(t, err)
	require.Len(t, created, 4)
	for i, tx := range created {
		assert.Equal(t, core.NewDate(2024, 3, 1).AddDays(i).String(), tx.Date.String())
	}

	created, err = p.CatchUp(ctx, core.NewDate(2024, 3, 4))
	require.NoError(t, err)
	assert.Empty(t, created)

	doc, err := svc.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", doc.RecurringRules[0].NextDate.String())
}

func TestRecurringProcessor_ReschedulesReminders(t *testing.T) {
	svc, rem, _ := newTestLedger(t, at(2024, 3, 1, 8))
	ctx := context.Background()
	p := NewRecurringProcessor(svc)

	rule := addRule(t, svc, core.RecurringRule{
		Name:           "Rent",
		Amount:         core.Money{Cents: -90000},
		Category:       "expense-housing",
		StartDate:      core.NewDate(2024, 3, 1),
		Frequency:      core.Monthly,
		CreateReminder: true,
		ReminderDays:   1,
	})
	require.Len(t, rem.upserted, 1)

	_, err := p.ProcessRecurringTransactions(ctx, core.NewDate(2024, 3, 1))
	require.NoError(t, err)

	require.Len(t, rem.upserted, 2)
	assert.Equal(t, rule.ReminderID(), rem.upserted[1].ID)
	assert.Equal(t, "2024-03-31", rem.upserted[1].DateKey)
	assert.Equal(t, 1, rem.reloads)
}
