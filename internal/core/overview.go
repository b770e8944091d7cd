package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

const (
	InsightPositive InsightType = "positive"
	InsightNegative InsightType = "negative"
	InsightWarning  InsightType = "warning"
	InsightNeutral  InsightType = "neutral"
	InsightInfo     InsightType = "info"
)

const (
	CorrelationHighSpending     CorrelationType = "high_spending"
	CorrelationCategorySpending CorrelationType = "category_spending"
)

type (
	// Period is a trailing time window used to bound statistics.
	Period string

	BudgetProgress struct {
		Budget     Budget `json:"budget"`
		Spent      Money  `json:"spent"`
		Remaining  Money  `json:"remaining"`
		Percentage int    `json:"percentage"`
	}

	FinancialStats struct {
		Period            Period           `json:"period"`
		Start             time.Time        `json:"start"`
		End               time.Time        `json:"end"`
		Income            Money            `json:"income"`
		Expenses          Money            `json:"expenses"`
		Balance           Money            `json:"balance"`
		CategoryBreakdown map[string]Money `json:"categoryBreakdown"`
		ExpenseBreakdown  map[string]Money `json:"expenseBreakdown"`
		MonthlyChange     Money            `json:"monthlyChange"`
		Budgets           []BudgetProgress `json:"budgets"`
		TransactionCount  int              `json:"transactionCount"`
	}

	InsightType string

	Insight struct {
		Type        InsightType `json:"type"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Icon        string      `json:"icon"`
		Details     []string    `json:"details,omitempty"`
	}

	FinancialInsights struct {
		Score    int       `json:"score"`
		Insights []Insight `json:"insights"`
	}

	// MoodEntry holds one day's mood readings on a 0-5 scale. A nil reading
	// was not recorded.
	MoodEntry struct {
		Morning *float64 `json:"morning,omitempty"`
		Evening *float64 `json:"evening,omitempty"`
	}

	CorrelationType string

	Correlation struct {
		Type         CorrelationType `json:"type"`
		Category     string          `json:"category,omitempty"`
		CategoryName string          `json:"categoryName,omitempty"`
		Spending     Money           `json:"spending"`
		MoodChange   float64         `json:"moodChange"`
		Date         Date            `json:"date"`
	}
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// StartFrom returns the beginning of the trailing window ending at now.
func (p Period) StartFrom(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodQuarter:
		return now.AddDate(0, -3, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// Value averages the recorded readings. ok is false when neither was recorded.
func (m MoodEntry) Value() (v float64, ok bool) {
	switch {
	case m.Morning != nil && m.Evening != nil:
		return (*m.Morning + *m.Evening) / 2, true
	case m.Morning != nil:
		return *m.Morning, true
	case m.Evening != nil:
		return *m.Evening, true
	default:
		return 0, false
	}
}
