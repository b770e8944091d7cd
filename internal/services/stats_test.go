package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func statsDoc() *core.Document {
	doc := core.NewDocument()
	doc.Transactions = []core.Transaction{
		{ID: "1", Amount: core.Money{Cents: 200000}, Category: "income-salary", Timestamp: at(2024, 3, 1, 9)},
		{ID: "2", Amount: core.Money{Cents: -12000}, Category: "expense-food", Timestamp: at(2024, 3, 5, 9)},
		{ID: "3", Amount: core.Money{Cents: -3000}, Category: "expense-dining", Timestamp: at(2024, 3, 9, 20)},
		{ID: "4", Amount: core.Money{Cents: -2000}, Category: "expense-food", Timestamp: at(2024, 2, 20, 9)},
		// Previous month window.
		{ID: "5", Amount: core.Money{Cents: 100000}, Category: "income-salary", Timestamp: at(2024, 1, 20, 9)},
		{ID: "6", Amount: core.Money{Cents: -40000}, Category: "expense-housing", Timestamp: at(2024, 2, 1, 9)},
		// Outside both windows.
		{ID: "7", Amount: core.Money{Cents: -99900}, Category: "expense-housing", Timestamp: at(2023, 12, 1, 9)},
	}
	doc.Budgets = []core.Budget{
		{ID: "b1", Target: core.GroupTarget("food"), Allocated: core.Money{Cents: 20000}},
		{ID: "b2", Target: core.CategoryTarget("expense-food"), Allocated: core.Money{Cents: 10000}, ResetAt: at(2024, 3, 8, 0)},
	}
	return doc
}

func TestCalculateFinancialStats_Month(t *testing.T) {
	now := at(2024, 3, 10, 12)
	stats := CalculateFinancialStats(statsDoc(), core.PeriodMonth, now)

	assert.Equal(t, at(2024, 2, 10, 12), stats.Start)
	assert.Equal(t, now, stats.End)
	assert.Equal(t, 4, stats.TransactionCount)
	assert.Equal(t, int64(200000), stats.Income.Cents)
	assert.Equal(t, int64(17000), stats.Expenses.Cents)
	assert.Equal(t, int64(183000), stats.Balance.Cents)

	assert.Equal(t, map[string]core.Money{
		"expense-food":   {Cents: 14000},
		"expense-dining": {Cents: 3000},
	}, stats.ExpenseBreakdown)
	assert.Equal(t, int64(200000), stats.CategoryBreakdown["income-salary"].Cents)

	// Previous window balance is 1000.00 - 400.00.
	assert.Equal(t, int64(183000-60000), stats.MonthlyChange.Cents)

	require.Len(t, stats.Budgets, 2)
	assert.Equal(t, int64(17000), stats.Budgets[0].Spent.Cents)
	assert.Equal(t, 85, stats.Budgets[0].Percentage)
	// Period statistics ignore the reset marker.
	assert.Equal(t, int64(14000), stats.Budgets[1].Spent.Cents)
	assert.Equal(t, 100, stats.Budgets[1].Percentage)
	assert.Equal(t, int64(-4000), stats.Budgets[1].Remaining.Cents)
}

func TestCalculateFinancialStats_Periods(t *testing.T) {
	now := at(2024, 3, 10, 12)
	tests := []struct {
		period core.Period
		count  int
		income int64
	}{
		{core.PeriodWeek, 2, 0},
		{core.PeriodMonth, 4, 200000},
		{core.PeriodQuarter, 6, 300000},
		{core.PeriodYear, 7, 300000},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			stats := CalculateFinancialStats(statsDoc(), tt.period, now)
			assert.Equal(t, tt.count, stats.TransactionCount)
			assert.Equal(t, tt.income, stats.Income.Cents)
			assert.Equal(t, stats.Income.Sub(stats.Expenses), stats.Balance)
			if tt.period != core.PeriodMonth {
				assert.Zero(t, stats.MonthlyChange.Cents)
			}
		})
	}
}

func TestCalculateFinancialStats_SumsAreAdditive(t *testing.T) {
	now := at(2024, 3, 10, 12)
	doc := statsDoc()
	before := CalculateFinancialStats(doc, core.PeriodMonth, now)

	doc.Transactions = append(doc.Transactions, core.Transaction{
		ID: "8", Amount: core.Money{Cents: -2550}, Category: "expense-food", Timestamp: at(2024, 3, 10, 8),
	})
	after := CalculateFinancialStats(doc, core.PeriodMonth, now)

	assert.Equal(t, before.Expenses.Cents+2550, after.Expenses.Cents)
	assert.Equal(t, before.Income, after.Income)
	assert.Equal(t, before.Balance.Cents-2550, after.Balance.Cents)
	assert.Equal(t, before.ExpenseBreakdown["expense-food"].Cents+2550, after.ExpenseBreakdown["expense-food"].Cents)
	assert.Equal(t, before.TransactionCount+1, after.TransactionCount)
}

func TestCalculateFinancialStats_EmptyDocument(t *testing.T) {
	stats := CalculateFinancialStats(core.NewDocument(), core.PeriodMonth, at(2024, 3, 10, 12))
	assert.Zero(t, stats.TransactionCount)
	assert.NotNil(t, stats.Budgets)
	assert.NotNil(t, stats.ExpenseBreakdown)
	assert.Zero(t, stats.Balance.Cents)
}

func TestBudgetPercentage(t *testing.T) {
	tests := []struct {
		spent, allocated int64
		want             int
	}{
		{0, 10000, 0},
		{5049, 10000, 50},
		{5050, 10000, 51},
		{12000, 10000, 100},
		{100, 0, 0},
	}
	for _, tt := range tests {
		got := budgetPercentage(core.Money{Cents: tt.spent}, core.Money{Cents: tt.allocated})
		assert.Equal(t, tt.want, got, "spent=%d allocated=%d", tt.spent, tt.allocated)
	}
}

func TestStatsService_CachesPerRevision(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: at(2024, 3, 10, 12)}

	docs := storage.NewLedgerStore(storage.NewMemoryStore())
	ledger := NewLedgerService(docs, nil)
	ledger.now = clock.Now

	c := cache.NewLRUCache[core.FinancialStats](4, time.Hour)
	stats := NewStatsService(docs, c)
	stats.now = clock.Now

	mustAddTx(t, ledger, "Groceries", -12000, "expense-food", core.NewDate(2024, 3, 10))

	first, err := stats.FinancialStats(ctx, core.PeriodMonth)
	require.NoError(t, err)
	second, err := stats.FinancialStats(ctx, core.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.InDelta(t, 0.5, c.HitRatio(), 1e-9)

	mustAddTx(t, ledger, "Dinner", -3000, "expense-dining", core.NewDate(2024, 3, 10))
	third, err := stats.FinancialStats(ctx, core.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), third.Expenses.Cents, "a new revision bypasses the cached entry")
}
