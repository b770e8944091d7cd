package services

import (
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestCalculateNextOccurrence(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		start     core.Date
		today     core.Date
		want      core.Date
	}{
		{
			name:      "monthly from the 31st clamps to leap February",
			frequency: core.Monthly,
			start:     core.NewDate(2024, 1, 31),
			today:     core.NewDate(2024, 2, 15),
			want:      core.NewDate(2024, 2, 29),
		},
		{
			name:      "monthly from the 31st clamps to common February",
			frequency: core.Monthly,
			start:     core.NewDate(2023, 1, 31),
			today:     core.NewDate(2023, 2, 15),
			want:      core.NewDate(2023, 2, 28),
		},
		{
			name:      "monthly returns to the 31st after a short month",
			frequency: core.Monthly,
			start:     core.NewDate(2024, 1, 31),
			today:     core.NewDate(2024, 3, 1),
			want:      core.NewDate(2024, 3, 31),
		},
		{
			name:      "monthly on the start date moves one step",
			frequency: core.Monthly,
			start:     core.NewDate(2024, 3, 1),
			today:     core.NewDate(2024, 3, 1),
			want:      core.NewDate(2024, 4, 1),
		},
		{
			name:      "daily",
			frequency: core.Daily,
			start:     core.NewDate(2024, 1, 1),
			today:     core.NewDate(2024, 1, 10),
			want:      core.NewDate(2024, 1, 11),
		},
		{
			name:      "weekly on an occurrence is strictly after today",
			frequency: core.Weekly,
			start:     core.NewDate(2024, 1, 1),
			today:     core.NewDate(2024, 1, 15),
			want:      core.NewDate(2024, 1, 22),
		},
		{
			name:      "biweekly keeps the weekday",
			frequency: core.Biweekly,
			start:     core.NewDate(2024, 1, 1),
			today:     core.NewDate(2024, 1, 14),
			want:      core.NewDate(2024, 1, 15),
		},
		{
			name:      "quarterly clamps to April 30",
			frequency: core.Quarterly,
			start:     core.NewDate(2024, 1, 31),
			today:     core.NewDate(2024, 2, 1),
			want:      core.NewDate(2024, 4, 30),
		},
		{
			name:      "annually from leap day in a common year",
			frequency: core.Annually,
			start:     core.NewDate(2024, 2, 29),
			today:     core.NewDate(2024, 3, 1),
			want:      core.NewDate(2025, 2, 28),
		},
		{
			name:      "annually from leap day returns to the next leap year",
			frequency: core.Annually,
			start:     core.NewDate(2024, 2, 29),
			today:     core.NewDate(2027, 6, 1),
			want:      core.NewDate(2028, 2, 29),
		},
		{
			name:      "future start is returned unchanged",
			frequency: core.Monthly,
			start:     core.NewDate(2024, 6, 1),
			today:     core.NewDate(2024, 3, 1),
			want:      core.NewDate(2024, 6, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateNextOccurrence(tt.frequency, tt.start, tt.today)
			if err != nil {
				t.Fatalf("CalculateNextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("CalculateNextOccurrence() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateNextOccurrence_UnknownFrequency(t *testing.T) {
	_, err := CalculateNextOccurrence(core.Frequency("fortnightly"), core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1))
	if !errors.Is(err, core.ErrMalformedRule) {
		t.Fatalf("expected ErrMalformedRule, got %v", err)
	}
}

func TestCalculateNextOccurrence_NeverSkips(t *testing.T) {
	// Walking day by day, every next occurrence must be the smallest
	// schedule date after today.
	start := core.NewDate(2024, 1, 31)
	for _, f := range core.Frequencies() {
		stepper, _ := GetOccurrenceStepper(f)
		for today := start; today.Before(core.NewDate(2025, 3, 1)); today = today.AddDays(1) {
			got, err := CalculateNextOccurrence(f, start, today)
			if err != nil {
				t.Fatalf("%s %s: %v", f, today, err)
			}
			var want core.Date
			for n := 0; ; n++ {
				if occ := stepper.Occurrence(start, n); occ.After(today) {
					want = occ
					break
				}
			}
			if !got.Equal(want) {
				t.Fatalf("%s on %s: got %s, want %s", f, today, got, want)
			}
		}
	}
}

func TestInitialNextDate(t *testing.T) {
	today := core.NewDate(2024, 3, 10)

	tests := []struct {
		name  string
		start core.Date
		want  core.Date
	}{
		{"start today fires today", today, today},
		{"future start fires on start", core.NewDate(2024, 4, 1), core.NewDate(2024, 4, 1)},
		{"past start fires on next occurrence", core.NewDate(2024, 1, 15), core.NewDate(2024, 3, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.RecurringRule{Frequency: core.Monthly, StartDate: tt.start}
			got, err := initialNextDate(rule, today)
			if err != nil {
				t.Fatalf("initialNextDate() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("initialNextDate() = %s, want %s", got, tt.want)
			}
		})
	}
}
