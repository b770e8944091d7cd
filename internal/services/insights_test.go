package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func hasInsight(insights []core.Insight, title string) bool {
	for _, in := range insights {
		if in.Title == title {
			return true
		}
	}
	return false
}

func TestBuildInsights_HealthyMonth(t *testing.T) {
	doc := core.NewDocument()
	doc.SavingsGoals = []core.SavingsGoal{
		{Name: "Bike", Target: core.Money{Cents: 10000}, Current: core.Money{Cents: 8000}},
		{Name: "Done", Target: core.Money{Cents: 10000}, Current: core.Money{Cents: 10000}},
	}
	stats := core.FinancialStats{
		Income:   core.Money{Cents: 300000},
		Expenses: core.Money{Cents: 100000},
		ExpenseBreakdown: map[string]core.Money{
			"expense-food":    {Cents: 30000},
			"expense-housing": {Cents: 35000},
			"expense-dining":  {Cents: 35000},
		},
	}

	got := BuildInsights(stats, doc, core.NewDate(2024, 3, 10))
	assert.Equal(t, 100, got.Score)
	assert.True(t, hasInsight(got.Insights, "Great savings rate"))
	assert.True(t, hasInsight(got.Insights, "Savings goals on track"))
	assert.False(t, hasInsight(got.Insights, "Spending concentrated in one category"))
}

func TestBuildInsights_StrugglingMonth(t *testing.T) {
	doc := core.NewDocument()
	doc.RecurringRules = []core.RecurringRule{
		{Name: "Rent", Amount: core.Money{Cents: -90000}, NextDate: core.NewDate(2024, 3, 12)},
		{Name: "Salary", Amount: core.Money{Cents: 300000}, NextDate: core.NewDate(2024, 3, 11)},
		{Name: "Insurance", Amount: core.Money{Cents: -20000}, NextDate: core.NewDate(2024, 4, 30)},
	}
	budgets := make([]core.BudgetProgress, 0, 12)
	for i := 0; i < 12; i++ {
		budgets = append(budgets, core.BudgetProgress{
			Budget:     core.Budget{Target: core.CategoryTarget("expense-food"), Allocated: core.Money{Cents: 100}},
			Spent:      core.Money{Cents: 200},
			Percentage: 100,
		})
	}
	stats := core.FinancialStats{
		Income:           core.Money{Cents: 0},
		Expenses:         core.Money{Cents: 50000},
		ExpenseBreakdown: map[string]core.Money{"expense-food": {Cents: 50000}},
		Budgets:          budgets,
	}

	got := BuildInsights(stats, doc, core.NewDate(2024, 3, 10))
	assert.Equal(t, 0, got.Score, "score is clamped at zero")
	assert.True(t, hasInsight(got.Insights, "Spending exceeds income"))
	assert.True(t, hasInsight(got.Insights, "Over budget"))
	assert.True(t, hasInsight(got.Insights, "Spending concentrated in one category"))

	for _, in := range got.Insights {
		if in.Title == "Upcoming payments" {
			assert.Equal(t, []string{"Rent: 900.00 USD on 2024-03-12"}, in.Details)
		}
	}
	assert.True(t, hasInsight(got.Insights, "Upcoming payments"))
}

func TestBuildInsights_ScoreAlwaysInRange(t *testing.T) {
	doc := core.NewDocument()
	for income := int64(0); income <= 200000; income += 25000 {
		for expenses := int64(0); expenses <= 200000; expenses += 25000 {
			stats := core.FinancialStats{
				Income:           core.Money{Cents: income},
				Expenses:         core.Money{Cents: expenses},
				ExpenseBreakdown: map[string]core.Money{"expense-food": {Cents: expenses}},
			}
			score := BuildInsights(stats, doc, core.NewDate(2024, 3, 10)).Score
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	}
}

func mood(morning, evening float64) core.MoodEntry {
	return core.MoodEntry{Morning: &morning, Evening: &evening}
}

func spend(day core.Date, category string, cents int64) core.Transaction {
	return core.Transaction{Amount: core.Money{Cents: -cents}, Category: category, Date: day}
}

func TestCorrelateSpendingMood_TooFewDays(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	moods := map[core.Date]core.MoodEntry{
		d:            mood(4, 4),
		d.AddDays(1): mood(1, 1),
		d.AddDays(2): mood(4, 4),
		d.AddDays(3): mood(4, 4),
		d.AddDays(4): {}, // nothing recorded
	}
	got := CorrelateSpendingMood([]core.Transaction{spend(d, "expense-food", 50000)}, moods, core.DefaultCategories(), DefaultCorrelationThresholds())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCorrelateSpendingMood(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	moods := map[core.Date]core.MoodEntry{
		d:            mood(4, 5),   // 4.5
		d.AddDays(1): mood(2, 3),   // 2.5, drop of 2 after day 0
		d.AddDays(2): mood(3, 3),   // 3
		d.AddDays(3): mood(2, 2),   // 2, drop of 1 after day 2
		d.AddDays(5): mood(1, 1),   // day 4 missing, no pair for day 3 or 5
		d.AddDays(6): mood(0.5, 0.5),
	}
	txs := []core.Transaction{
		spend(d, "expense-food", 8000),
		spend(d, "expense-dining", 4000),
		spend(d.AddDays(2), "expense-dining", 6000),
		spend(d.AddDays(3), "expense-food", 30000), // next day has no mood
		spend(d.AddDays(5), "expense-food", 1000),  // below every threshold
		{Amount: core.Money{Cents: 500000}, Category: "income-salary", Date: d},
	}

	got := CorrelateSpendingMood(txs, moods, core.DefaultCategories(), DefaultCorrelationThresholds())
	require.Len(t, got, 3)

	assert.Equal(t, core.CorrelationHighSpending, got[0].Type)
	assert.Equal(t, int64(12000), got[0].Spending.Cents)
	assert.InDelta(t, 2.0, got[0].MoodChange, 1e-9)
	assert.Equal(t, "2024-03-01", got[0].Date.String())

	assert.Equal(t, core.CorrelationCategorySpending, got[1].Type)
	assert.Equal(t, "expense-food", got[1].Category)
	assert.Equal(t, "Groceries", got[1].CategoryName)
	assert.InDelta(t, 2.0, got[1].MoodChange, 1e-9)

	assert.Equal(t, core.CorrelationCategorySpending, got[2].Type)
	assert.Equal(t, "expense-dining", got[2].Category)
	assert.InDelta(t, 1.0, got[2].MoodChange, 1e-9)
}

func TestCorrelateSpendingMood_CustomThresholds(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	moods := map[core.Date]core.MoodEntry{}
	for i := 0; i < 6; i++ {
		moods[d.AddDays(i)] = mood(float64(5-i), float64(5-i))
	}
	txs := []core.Transaction{spend(d, "expense-food", 2000)}

	assert.Empty(t, CorrelateSpendingMood(txs, moods, core.DefaultCategories(), DefaultCorrelationThresholds()))

	low := CorrelationThresholds{Daily: core.Money{Cents: 1500}, Category: core.Money{Cents: 1000}}
	got := CorrelateSpendingMood(txs, moods, core.DefaultCategories(), low)
	require.Len(t, got, 2)
	assert.Equal(t, core.CorrelationHighSpending, got[0].Type)
	assert.Equal(t, core.CorrelationCategorySpending, got[1].Type)
}

type staticMoods map[core.Date]core.MoodEntry

func (m staticMoods) Moods(context.Context) (map[core.Date]core.MoodEntry, error) {
	return m, nil
}

func TestInsightService(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: at(2024, 3, 10, 12)}

	docs := storage.NewLedgerStore(storage.NewMemoryStore())
	ledger := NewLedgerService(docs, nil)
	ledger.now = clock.Now
	stats := NewStatsService(docs, cache.NewLRUCache[core.FinancialStats](4, 0))
	stats.now = clock.Now

	d := core.NewDate(2024, 3, 1)
	moods := staticMoods{}
	for i := 0; i < 5; i++ {
		moods[d.AddDays(i)] = mood(4, 4)
	}
	moods[d.AddDays(1)] = mood(1, 2)

	svc := NewInsightService(docs, stats, moods, DefaultCorrelationThresholds())
	svc.now = clock.Now

	mustAddTx(t, ledger, "Salary", 300000, "income-salary", core.NewDate(2024, 3, 1))
	mustAddTx(t, ledger, "Shoes", -15000, "expense-shopping", core.NewDate(2024, 3, 1))

	insights, err := svc.GetFinancialInsights(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, insights.Score, 0)
	assert.LessOrEqual(t, insights.Score, 100)
	assert.True(t, hasInsight(insights.Insights, "Great savings rate"))

	correlations, err := svc.GetSpendingMoodCorrelation(ctx)
	require.NoError(t, err)
	require.Len(t, correlations, 2)
	assert.InDelta(t, 2.5, correlations[0].MoodChange, 1e-9)

	noMoods := NewInsightService(docs, stats, nil, DefaultCorrelationThresholds())
	empty, err := noMoods.GetSpendingMoodCorrelation(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
