package plan

import (
	"errors"
	"testing"
	"time"

	"pkms/internal/task"
)

// Monday.
var refToday = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

func TestParseGrammar(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2025-12-24", "2025-12-24"},
		{"  2026-01-02  ", "2026-01-02"},
		{"2025-2-3", "2025-02-03"}, // unpadded dates canonicalize
		{"today", "2025-12-01"},
		{"TODAY", "2025-12-01"},
		{"tomorrow", "2025-12-02"},
		{"tmr", "2025-12-02"},
		{"tmrw", "2025-12-02"},
		{"+0d", "2025-12-01"},
		{"+3d", "2025-12-04"},
		{"+2w", "2025-12-15"},
		{"+10d", "2025-12-11"},
		{"fri", "2025-12-05"},
		{"Friday", "2025-12-05"},
		{"mon", "2025-12-01"}, // bare weekday includes today
		{"next mon", "2025-12-08"},
		{"next friday", "2025-12-12"},
		{"NEXT TUE", "2025-12-09"},
	}
	for _, c := range cases {
		got, err := ParseToCanonical(c.expr, refToday)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", c.expr, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %s, want %s", c.expr, got, c.want)
		}
	}
}

func TestParseRejectsUnrecognized(t *testing.T) {
	for _, expr := range []string{"", "someday", "2025-13-01", "2025-02-30", "+d", "+-1d", "+3x", "next blursday", "12/01/2025"} {
		_, err := Parse(expr, refToday)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", expr)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Parse(%q): error is %T, want *ParseError", expr, err)
		}
	}
}

func TestParseErrorCarriesInput(t *testing.T) {
	_, err := Parse("  Someday  ", refToday)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Input != "Someday" {
		t.Fatalf("ParseError.Input = %q, want trimmed original", pe.Input)
	}
}

func TestParseNextWeekdayOnSameWeekdayIsSevenDaysOut(t *testing.T) {
	friday := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	got, err := Parse("next fri", friday)
	if err != nil {
		t.Fatal(err)
	}
	if days := task.DaysBetween(friday, got); days != 7 {
		t.Fatalf("next fri on a Friday = %d days out, want 7", days)
	}
}

func TestParseRelativeMatchesNextWeekday(t *testing.T) {
	// today+7 lands on the same weekday, so +7d and "next <that weekday>"
	// must agree.
	plus7, err := Parse("+7d", refToday)
	if err != nil {
		t.Fatal(err)
	}
	nextMon, err := Parse("next monday", refToday)
	if err != nil {
		t.Fatal(err)
	}
	if !plus7.Equal(nextMon) {
		t.Fatalf("+7d = %v, next monday = %v", plus7, nextMon)
	}
}

func TestParseTodayRoundTrip(t *testing.T) {
	got, err := Parse("today", refToday)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(refToday) {
		t.Fatalf("Parse(today) = %v, want %v", got, refToday)
	}
}
