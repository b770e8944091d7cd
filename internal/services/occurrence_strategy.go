// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring transaction
// schedules. Each frequency has a stepper that knows how to compute the n-th
// occurrence of a rule from its original start date.

package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// OccurrenceStepper is the strategy interface for recurring schedules.
type OccurrenceStepper interface {
	// Occurrence returns the n-th occurrence counted from start (n=0 is start).
	Occurrence(start core.Date, n int) core.Date

	// StepsBefore returns a lower bound on the number of whole steps between
	// start and day. It never skips an occurrence.
	StepsBefore(start, day core.Date) int
}

// DayStepper repeats every fixed number of days, which keeps the weekday.
type DayStepper struct {
	Days int
}

func (s DayStepper) Occurrence(start core.Date, n int) core.Date {
	return start.AddDays(n * s.Days)
}

func (s DayStepper) StepsBefore(start, day core.Date) int {
	return start.DaysUntil(day) / s.Days
}

// MonthStepper repeats every fixed number of months on the start's day of
// month, clamped to the last day of shorter months. Each occurrence is
// derived from start, so a 31st keeps returning to the 31st.
type MonthStepper struct {
	Months int
}

func (s MonthStepper) Occurrence(start core.Date, n int) core.Date {
	first := time.Date(start.Time.Year(), start.Time.Month()+time.Month(n*s.Months), 1, 0, 0, 0, 0, time.UTC)
	day := start.Time.Day()
	if last := core.DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

func (s MonthStepper) StepsBefore(start, day core.Date) int {
	months := (day.Time.Year()-start.Time.Year())*12 + int(day.Time.Month()) - int(start.Time.Month())
	return months / s.Months
}

// occurrenceStrategies maps frequencies to their steppers.
var occurrenceStrategies = map[core.Frequency]OccurrenceStepper{
	core.Daily:     DayStepper{Days: 1},
	core.Weekly:    DayStepper{Days: 7},
	core.Biweekly:  DayStepper{Days: 14},
	core.Monthly:   MonthStepper{Months: 1},
	core.Quarterly: MonthStepper{Months: 3},
	core.Annually:  MonthStepper{Months: 12},
}

// GetOccurrenceStepper returns the stepper for a frequency.
// Returns an error wrapping core.ErrMalformedRule if the frequency is not supported.
func GetOccurrenceStepper(frequency core.Frequency) (OccurrenceStepper, error) {
	stepper, ok := occurrenceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: unknown frequency %q", core.ErrMalformedRule, string(frequency))
	}
	return stepper, nil
}

// CalculateNextOccurrence returns the first occurrence of a rule strictly
// after today. A start date still in the future is returned unchanged.
func CalculateNextOccurrence(frequency core.Frequency, startDate, today core.Date) (core.Date, error) {
	stepper, err := GetOccurrenceStepper(frequency)
	if err != nil {
		return core.Date{}, err
	}

	if startDate.After(today) {
		return startDate, nil
	}

	n := stepper.StepsBefore(startDate, today)
	if n < 0 {
		n = 0
	}
	next := stepper.Occurrence(startDate, n)
	for !next.After(today) {
		n++
		next = stepper.Occurrence(startDate, n)
	}
	return next, nil
}

// initialNextDate is the first date a newly written rule fires: its start
// date when that is today or later, otherwise the next occurrence.
func initialNextDate(rule core.RecurringRule, today core.Date) (core.Date, error) {
	if !rule.StartDate.Before(today) {
		return rule.StartDate, nil
	}
	return CalculateNextOccurrence(rule.Frequency, rule.StartDate, today)
}
