package pacing

import (
	"testing"
	"time"

	decimal "github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/billing"
)

func june() billing.Period {
	return billing.Resolve(billing.Cycle{}, billing.Selector{Year: 2025, Month: time.June}, time.Now())
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClassifyMidPeriodProjection(t *testing.T) {
	// 30-day month, 15 days elapsed, 1800 of 3000 spent.
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	res := Classify(d("1800"), d("3000"), june(), now, false)

	if res.DaysTotal != 30 || res.DaysElapsed != 15 || res.DaysLeft != 15 {
		t.Fatalf("day math: %+v", res)
	}
	if !res.ProjectedSpend.Equal(d("3600")) {
		t.Errorf("projected = %s, want 3600", res.ProjectedSpend)
	}
	if res.PctUsed != 60 {
		t.Errorf("pct used = %v, want 60", res.PctUsed)
	}
	if res.Status != StatusHot {
		t.Errorf("status = %s, want HOT (3600 > 3150)", res.Status)
	}
}

func TestClassifyThresholdsAreStrict(t *testing.T) {
	period := june()
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	// Spend chosen so the projection lands exactly on 1050: 525 over 15 of
	// 30 days projects to 1050.00.
	res := Classify(d("525"), d("1000"), period, now, false)
	if !res.ProjectedSpend.Equal(d("1050")) {
		t.Fatalf("projected = %s", res.ProjectedSpend)
	}
	if res.Status != StatusOnTrack {
		t.Errorf("projection at exactly 105%% must stay ON_TRACK, got %s", res.Status)
	}

	res = Classify(d("525.005"), d("1000"), period, now, false)
	if res.Status != StatusHot {
		t.Errorf("projection above 105%% must be HOT, got %s", res.Status)
	}

	res = Classify(d("475"), d("1000"), period, now, false)
	if res.Status != StatusOnTrack {
		t.Errorf("projection at exactly 95%% must stay ON_TRACK, got %s", res.Status)
	}
	res = Classify(d("474"), d("1000"), period, now, false)
	if res.Status != StatusCold {
		t.Errorf("projection below 95%% must be COLD, got %s", res.Status)
	}
}

func TestClassifyOverBudgetOverridesPace(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	res := Classify(d("1000"), d("1000"), june(), now, false)
	if res.Status != StatusOverBudget {
		t.Fatalf("spend at budget must be OVER_BUDGET, got %s", res.Status)
	}
}

func TestClassifyHistoricalIsComplete(t *testing.T) {
	now := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)
	res := Classify(d("5000"), d("1000"), june(), now, true)
	if res.Status != StatusComplete {
		t.Fatalf("historical period must be COMPLETE, got %s", res.Status)
	}
	if res.DaysLeft != 0 || res.DaysElapsed != res.DaysTotal {
		t.Fatalf("historical day math: %+v", res)
	}
}

func TestClassifyDayOneNoDivisionByZero(t *testing.T) {
	// Evaluated before the period has started (mid-gap after a rollover).
	now := time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	res := Classify(d("0"), d("1000"), june(), now, false)
	if res.DaysElapsed != 0 {
		t.Fatalf("elapsed = %d, want 0", res.DaysElapsed)
	}
	if !res.ProjectedSpend.IsZero() {
		t.Fatalf("projection with zero elapsed days must equal spend, got %s", res.ProjectedSpend)
	}
}

func TestClassifyClampsElapsedToTotal(t *testing.T) {
	now := time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC)
	res := Classify(d("900"), d("1000"), june(), now, false)
	if res.DaysElapsed != res.DaysTotal || res.DaysLeft != 0 {
		t.Fatalf("post-period day math: %+v", res)
	}
}
