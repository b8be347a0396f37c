package timeutil

import (
	"testing"
	"time"
)

func TestParseCellFormats(t *testing.T) {
	want := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		cell string
	}{
		{"2025-03-07"},
		{"2025/3/7"},
		{"2025.03.07"},
		{"07/03/2025"},
		{"7-3-2025"},
		{"7.3.2025"},
		{"7 Mar 2025"},
		{"Mar 7, 2025"},
	}
	for _, tt := range tests {
		got, ok := ParseCell(tt.cell)
		if !ok {
			t.Fatalf("ParseCell(%q) not parseable", tt.cell)
		}
		if !got.Equal(want) {
			t.Errorf("ParseCell(%q) = %v, want %v", tt.cell, got, want)
		}
	}
}

func TestParseCellISOBeforeUK(t *testing.T) {
	// Day <= 12 is the ambiguous zone; year-first must win.
	got, ok := ParseCell("2025-03-07")
	if !ok || got.Month() != time.March || got.Day() != 7 {
		t.Fatalf("ISO parse got %v ok=%v", got, ok)
	}
	got, ok = ParseCell("07/03/2025")
	if !ok || got.Month() != time.March || got.Day() != 7 {
		t.Fatalf("UK parse got %v ok=%v", got, ok)
	}
}

func TestParseCellUnparseable(t *testing.T) {
	for _, cell := range []string{"", "   ", "Total", "2025-13-01", "30/02/2025", "n/a"} {
		if _, ok := ParseCell(cell); ok {
			t.Errorf("ParseCell(%q) unexpectedly parsed", cell)
		}
	}
}

func TestDaysInclusive(t *testing.T) {
	start := time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 30, 2, 0, 0, 0, time.UTC)
	if got := DaysInclusive(start, end); got != 30 {
		t.Fatalf("DaysInclusive = %d, want 30", got)
	}
	if got := DaysInclusive(start, start); got != 1 {
		t.Fatalf("same-day DaysInclusive = %d, want 1", got)
	}
	if got := DaysInclusive(end, start); got != 0 {
		t.Fatalf("reversed DaysInclusive = %d, want 0", got)
	}
}

func TestToday(t *testing.T) {
	// 23:30 UTC on June 15 is already June 16 on a BST wall clock.
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2025, time.June, 15, 23, 30, 0, 0, time.UTC)
	got := Today(now, london)
	want := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Today = %v, want %v", got, want)
	}
	if got := Today(now, nil); !got.Equal(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Today with nil loc = %v", got)
	}
}

func TestDayGranularityComparisons(t *testing.T) {
	morning := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, time.June, 15, 23, 0, 0, 0, time.UTC)
	if !SameOrAfter(morning, evening) || !SameOrBefore(evening, morning) {
		t.Fatal("time-of-day must not affect day comparisons")
	}
}
