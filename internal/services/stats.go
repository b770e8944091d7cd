package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// CalculateFinancialStats aggregates the transactions of the trailing period
// ending at now. It does not modify doc.
func CalculateFinancialStats(doc *core.Document, period core.Period, now time.Time) core.FinancialStats {
	start := period.StartFrom(now)

	stats := core.FinancialStats{
		Period:            period,
		Start:             start,
		End:               now,
		CategoryBreakdown: make(map[string]core.Money),
		ExpenseBreakdown:  make(map[string]core.Money),
		Budgets:           make([]core.BudgetProgress, 0, len(doc.Budgets)),
	}

	var current []core.Transaction
	for _, tx := range doc.Transactions {
		if tx.Timestamp.Before(start) {
			continue
		}
		current = append(current, tx)

		switch {
		case tx.Amount.IsIncome():
			stats.Income = stats.Income.Add(tx.Amount)
		case tx.Amount.IsExpense():
			stats.Expenses = stats.Expenses.Add(tx.Amount.Abs())
			stats.ExpenseBreakdown[tx.Category] = stats.ExpenseBreakdown[tx.Category].Add(tx.Amount.Abs())
		}
		stats.CategoryBreakdown[tx.Category] = stats.CategoryBreakdown[tx.Category].Add(tx.Amount.Abs())
	}
	stats.TransactionCount = len(current)
	stats.Balance = stats.Income.Sub(stats.Expenses)

	if period == core.PeriodMonth {
		prevStart := period.StartFrom(start)
		var prevBalance core.Money
		for _, tx := range doc.Transactions {
			if tx.Timestamp.Before(prevStart) || !tx.Timestamp.Before(start) {
				continue
			}
			prevBalance = prevBalance.Add(tx.Amount)
		}
		stats.MonthlyChange = stats.Balance.Sub(prevBalance)
	}

	for _, b := range doc.Budgets {
		spent := periodSpent(b, current, doc.Categories)
		stats.Budgets = append(stats.Budgets, core.BudgetProgress{
			Budget:     b,
			Spent:      spent,
			Remaining:  b.Allocated.Sub(spent),
			Percentage: budgetPercentage(spent, b.Allocated),
		})
	}

	return stats
}

// periodSpent recomputes a budget's spending over the given transactions,
// independent of the budget's reset marker.
func periodSpent(b core.Budget, txs []core.Transaction, catalog core.CategoryCatalog) core.Money {
	window := b
	window.ResetAt = time.Time{}
	return window.Spent(txs, catalog)
}

func budgetPercentage(spent, allocated core.Money) int {
	if allocated.Cents <= 0 {
		return 0
	}
	pct := int(math.Round(float64(spent.Cents) / float64(allocated.Cents) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// StatsService serves period statistics from the store through a short-lived cache.
type StatsService struct {
	store storage.DocumentStore
	cache cache.Cache[core.FinancialStats]
	now   func() time.Time
}

func NewStatsService(store storage.DocumentStore, c cache.Cache[core.FinancialStats]) *StatsService {
	return &StatsService{
		store: store,
		cache: c,
		now:   time.Now,
	}
}

// FinancialStats returns the statistics of period as of now. Results are
// cached per document revision and minute.
func (s *StatsService) FinancialStats(ctx context.Context, period core.Period) (core.FinancialStats, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return core.FinancialStats{}, fmt.Errorf("calculate %s stats: %w", period, err)
	}
	return s.statsFor(ctx, doc, period), nil
}

func (s *StatsService) statsFor(ctx context.Context, doc *core.Document, period core.Period) core.FinancialStats {
	now := s.now()
	key := fmt.Sprintf("%s|%d|%s", period, doc.Revision, now.Truncate(time.Minute).Format(time.RFC3339))

	if s.cache != nil {
		if stats, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Stats cache hit", applog.FieldPeriod, string(period), "key", key)
			return stats
		}
	}

	stats := CalculateFinancialStats(doc, period, now)
	if s.cache != nil {
		s.cache.Set(key, stats)
	}
	return stats
}
