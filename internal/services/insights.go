package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	baselineScore      = 50
	upcomingWindowDays = 7
	topCategoryShare   = 0.4
	goalProgressTarget = 0.7
	minMoodDays        = 5
	maxCorrelations    = 3
)

// MoodSource supplies the mood tracker's readings keyed by calendar date.
type MoodSource interface {
	Moods(ctx context.Context) (map[core.Date]core.MoodEntry, error)
}

// CorrelationThresholds bound what counts as notable same-day spending.
type CorrelationThresholds struct {
	Daily    core.Money
	Category core.Money
}

// DefaultCorrelationThresholds returns 100.00 per day and 50.00 per category.
func DefaultCorrelationThresholds() CorrelationThresholds {
	return CorrelationThresholds{
		Daily:    core.Money{Cents: 10000},
		Category: core.Money{Cents: 5000},
	}
}

// BuildInsights scores financial health from the month's statistics and the
// document's goals and recurring rules. The score is clamped to [0, 100].
func BuildInsights(stats core.FinancialStats, doc *core.Document, today core.Date) core.FinancialInsights {
	score := baselineScore
	insights := []core.Insight{}
	currency := doc.Settings.Currency
	names := doc.Categories

	if stats.Income.Cents > stats.Expenses.Cents {
		score += 20
	} else {
		score -= 10
	}

	savingsRate := 0.0
	if stats.Income.Cents > 0 {
		savingsRate = float64(stats.Income.Cents-stats.Expenses.Cents) / float64(stats.Income.Cents) * 100
	}
	switch {
	case savingsRate >= 20:
		score += 20
		insights = append(insights, core.Insight{
			Type:        core.InsightPositive,
			Title:       "Great savings rate",
			Description: fmt.Sprintf("You are saving %.0f%% of your income this month.", savingsRate),
			Icon:        "piggy-bank",
		})
	case savingsRate > 0:
		score += 10
		insights = append(insights, core.Insight{
			Type:        core.InsightNeutral,
			Title:       "Room to save more",
			Description: fmt.Sprintf("You are saving %.0f%% of your income. Aim for at least 20%%.", savingsRate),
			Icon:        "balance-scale",
		})
	default:
		score -= 20
		insights = append(insights, core.Insight{
			Type:        core.InsightNegative,
			Title:       "Spending exceeds income",
			Description: "Your expenses this month are equal to or higher than your income.",
			Icon:        "exclamation-circle",
		})
	}

	var over, near []string
	for _, bp := range stats.Budgets {
		label := names.Name(bp.Budget.Target.Ref)
		detail := fmt.Sprintf("%s: %s of %s %s", label, bp.Spent, bp.Budget.Allocated, currency)
		switch {
		case bp.Spent.Cents > bp.Budget.Allocated.Cents:
			score -= 5
			over = append(over, detail)
		case bp.Percentage >= 80:
			near = append(near, detail)
		}
	}
	if len(over) > 0 {
		insights = append(insights, core.Insight{
			Type:        core.InsightNegative,
			Title:       "Over budget",
			Description: fmt.Sprintf("You have exceeded %d budget(s) this month.", len(over)),
			Icon:        "exclamation-triangle",
			Details:     over,
		})
	}
	if len(near) > 0 {
		insights = append(insights, core.Insight{
			Type:        core.InsightWarning,
			Title:       "Approaching budget limits",
			Description: fmt.Sprintf("%d budget(s) are at 80%% or more of their allocation.", len(near)),
			Icon:        "hourglass-half",
			Details:     near,
		})
	}

	if upcoming := upcomingExpenses(doc.RecurringRules, today, currency); len(upcoming) > 0 {
		insights = append(insights, core.Insight{
			Type:        core.InsightInfo,
			Title:       "Upcoming payments",
			Description: fmt.Sprintf("%d recurring payment(s) are due in the next %d days.", len(upcoming), upcomingWindowDays),
			Icon:        "calendar",
			Details:     upcoming,
		})
	}

	if stats.Expenses.Cents > 0 {
		topCategory, topAmount := "", core.Money{}
		for category, amount := range stats.ExpenseBreakdown {
			if amount.Cents > topAmount.Cents || (amount.Cents == topAmount.Cents && category < topCategory) {
				topCategory, topAmount = category, amount
			}
		}
		share := float64(topAmount.Cents) / float64(stats.Expenses.Cents)
		if share > topCategoryShare {
			score -= 10
			insights = append(insights, core.Insight{
				Type:        core.InsightWarning,
				Title:       "Spending concentrated in one category",
				Description: fmt.Sprintf("%s accounts for %.0f%% of your expenses this month.", names.Name(topCategory), share*100),
				Icon:        "chart-pie",
			})
		}
	}

	var progressSum float64
	var active int
	for _, g := range doc.SavingsGoals {
		if g.IsComplete() {
			continue
		}
		progressSum += g.Progress()
		active++
	}
	if active > 0 && progressSum/float64(active) > goalProgressTarget {
		score += 10
		insights = append(insights, core.Insight{
			Type:        core.InsightPositive,
			Title:       "Savings goals on track",
			Description: fmt.Sprintf("Your active savings goals are %.0f%% funded on average.", progressSum/float64(active)*100),
			Icon:        "bullseye",
		})
	}

	return core.FinancialInsights{
		Score:    clampScore(score),
		Insights: insights,
	}
}

func upcomingExpenses(rules []core.RecurringRule, today core.Date, currency string) []string {
	horizon := today.AddDays(upcomingWindowDays)
	due := make([]core.RecurringRule, 0)
	for _, r := range rules {
		if !r.Amount.IsExpense() || r.NextDate.Before(today) || r.NextDate.After(horizon) {
			continue
		}
		due = append(due, r)
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].NextDate.Before(due[j].NextDate) })

	out := make([]string, 0, len(due))
	for _, r := range due {
		out = append(out, fmt.Sprintf("%s: %s %s on %s", r.Name, r.Amount.Abs(), currency, r.NextDate))
	}
	return out
}

func clampScore(score int) int {
	return max(0, min(100, score))
}

// CorrelateSpendingMood flags days where notable spending was followed by a
// lower mood the next calendar day. It is a heuristic screen, not a
// statistical test. MoodChange is the size of the drop; the three largest
// drops are returned.
func CorrelateSpendingMood(txs []core.Transaction, moods map[core.Date]core.MoodEntry, catalog core.CategoryCatalog, th CorrelationThresholds) []core.Correlation {
	values := make(map[core.Date]float64, len(moods))
	for d, entry := range moods {
		if v, ok := entry.Value(); ok {
			values[d] = v
		}
	}
	if len(values) < minMoodDays {
		return []core.Correlation{}
	}

	days := make([]core.Date, 0, len(values))
	for d := range values {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	spendByDay := make(map[core.Date]map[string]core.Money)
	for _, tx := range txs {
		if !tx.Amount.IsExpense() {
			continue
		}
		byCat, ok := spendByDay[tx.Date]
		if !ok {
			byCat = make(map[string]core.Money)
			spendByDay[tx.Date] = byCat
		}
		byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount.Abs())
	}

	out := []core.Correlation{}
	for _, day := range days {
		nextMood, ok := values[day.AddDays(1)]
		if !ok {
			continue
		}
		drop := values[day] - nextMood
		if drop <= 0 {
			continue
		}

		byCat := spendByDay[day]
		var total core.Money
		categories := make([]string, 0, len(byCat))
		for category, amount := range byCat {
			total = total.Add(amount)
			categories = append(categories, category)
		}
		sort.Strings(categories)

		if total.Cents > th.Daily.Cents {
			out = append(out, core.Correlation{
				Type:       core.CorrelationHighSpending,
				Spending:   total,
				MoodChange: drop,
				Date:       day,
			})
		}
		for _, category := range categories {
			if byCat[category].Cents <= th.Category.Cents {
				continue
			}
			out = append(out, core.Correlation{
				Type:         core.CorrelationCategorySpending,
				Category:     category,
				CategoryName: catalog.Name(category),
				Spending:     byCat[category],
				MoodChange:   drop,
				Date:         day,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MoodChange > out[j].MoodChange })
	if len(out) > maxCorrelations {
		out = out[:maxCorrelations]
	}
	return out
}

// InsightService combines ledger statistics with external mood data.
type InsightService struct {
	store      storage.DocumentStore
	stats      *StatsService
	moods      MoodSource
	thresholds CorrelationThresholds
	now        func() time.Time
}

func NewInsightService(store storage.DocumentStore, stats *StatsService, moods MoodSource, thresholds CorrelationThresholds) *InsightService {
	return &InsightService{
		store:      store,
		stats:      stats,
		moods:      moods,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// GetFinancialInsights scores the current month.
func (s *InsightService) GetFinancialInsights(ctx context.Context) (core.FinancialInsights, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return core.FinancialInsights{}, fmt.Errorf("get financial insights: %w", err)
	}

	stats := s.stats.statsFor(ctx, doc, core.PeriodMonth)
	result := BuildInsights(stats, doc, core.DateOf(s.now()))

	slog.InfoContext(ctx, "Financial insights computed",
		"score", result.Score,
		"insights", len(result.Insights))

	return result, nil
}

// GetSpendingMoodCorrelation loads the ledger and mood data concurrently and
// correlates them.
func (s *InsightService) GetSpendingMoodCorrelation(ctx context.Context) ([]core.Correlation, error) {
	if s.moods == nil {
		return []core.Correlation{}, nil
	}

	var (
		doc   *core.Document
		moods map[core.Date]core.MoodEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = s.store.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		moods, err = s.moods.Moods(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get spending mood correlation: %w", err)
	}

	return CorrelateSpendingMood(doc.Transactions, moods, doc.Categories, s.thresholds), nil
}
