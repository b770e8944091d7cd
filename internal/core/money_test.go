package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"-1.005", -101, true},
		{" 2.50 ", 250, true},
		{"+3", 300, true},
		{"-120", -12000, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestParsePositiveAmount(t *testing.T) {
	for _, bad := range []string{"0", "-1", "-0.01"} {
		if _, err := ParsePositiveAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", bad, err)
		}
	}
	if m, err := ParsePositiveAmount("50"); err != nil || m.Cents != 5000 {
		t.Fatalf("expected 5000, got %d (err=%v)", m.Cents, err)
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if m, err := MoneyFromFloat(19.99); err != nil || m.Cents != 1999 {
		t.Fatalf("expected 1999, got %d (err=%v)", m.Cents, err)
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := MoneyFromFloat(bad); err == nil {
			t.Fatalf("%v expected error", bad)
		}
	}
}

func TestMoneyHelpers(t *testing.T) {
	exp := Money{Cents: -4250}
	if !exp.IsExpense() || exp.IsIncome() {
		t.Fatalf("sign helpers wrong for %d", exp.Cents)
	}
	if exp.Abs().Cents != 4250 {
		t.Fatalf("Abs: got %d", exp.Abs().Cents)
	}
	if got := exp.Add(Money{Cents: 250}).Sub(Money{Cents: 1000}); got.Cents != -5000 {
		t.Fatalf("Add/Sub: got %d", got.Cents)
	}
	if exp.String() != "-42.50" {
		t.Fatalf("String: got %s", exp.String())
	}
	if (Money{Cents: 5}).String() != "0.05" {
		t.Fatalf("String: got %s", Money{Cents: 5}.String())
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMoneyJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Money{"a": {Cents: -12000}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":-120.00}` {
		t.Fatalf("unexpected json %s", out)
	}

	for in, want := range map[string]int64{`12.5`: 1250, `"7,25"`: 725, `null`: 0, `-0.1`: -10} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil || m.Cents != want {
			t.Fatalf("%s: expected %d, got %d (err=%v)", in, want, m.Cents, err)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"lots"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
