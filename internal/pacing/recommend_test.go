package pacing

import (
	"testing"

	decimal "github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/aggregate"
)

func budgets(google, facebook string) map[aggregate.Platform]decimal.Decimal {
	return map[aggregate.Platform]decimal.Decimal{
		aggregate.PlatformGoogle:   decimal.RequireFromString(google),
		aggregate.PlatformFacebook: decimal.RequireFromString(facebook),
	}
}

func TestRecommendPeriodEnded(t *testing.T) {
	if _, ok := Recommend(Result{DaysLeft: 0}, d("100"), d("1000"), budgets("10", "10"), ""); ok {
		t.Fatal("no recommendation once the period is over")
	}
}

func TestRecommendCriticalPause(t *testing.T) {
	rec, ok := Recommend(Result{DaysLeft: 10}, d("1200"), d("1000"), budgets("30", "20"), "")
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if rec.Urgency != UrgencyCritical || !rec.TargetDailyBudget.IsZero() {
		t.Fatalf("over budget must pause spending: %+v", rec)
	}
	if !rec.Change.Equal(d("-50")) {
		t.Errorf("change = %s, want -50", rec.Change)
	}
	if !rec.PerPlatform[aggregate.PlatformGoogle].Change.Equal(d("-30")) {
		t.Errorf("google change = %s", rec.PerPlatform[aggregate.PlatformGoogle].Change)
	}
}

func TestRecommendProportionalSplit(t *testing.T) {
	// 900 remaining over 10 days; current split 30/20.
	rec, ok := Recommend(Result{DaysLeft: 10}, d("100"), d("1000"), budgets("30", "20"), "")
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if !rec.TargetDailyBudget.Equal(d("90")) {
		t.Fatalf("target = %s, want 90", rec.TargetDailyBudget)
	}
	google := rec.PerPlatform[aggregate.PlatformGoogle]
	facebook := rec.PerPlatform[aggregate.PlatformFacebook]
	if !google.Recommended.Equal(d("54")) || !facebook.Recommended.Equal(d("36")) {
		t.Fatalf("split = %s/%s, want 54/36", google.Recommended, facebook.Recommended)
	}
	sum := google.Recommended.Add(facebook.Recommended)
	if !sum.Sub(rec.TargetDailyBudget).Abs().LessThan(d("0.0001")) {
		t.Fatalf("split must sum to the target: %s vs %s", sum, rec.TargetDailyBudget)
	}
	if !google.Change.Equal(d("24")) || !facebook.Change.Equal(d("16")) {
		t.Fatalf("per-platform changes = %s/%s", google.Change, facebook.Change)
	}
	if rec.Urgency != UrgencyIncrease {
		t.Errorf("urgency = %s, want increase", rec.Urgency)
	}
}

func TestRecommendNearTargetIsGood(t *testing.T) {
	// Target 90 against a current 89: within both thresholds.
	rec, ok := Recommend(Result{DaysLeft: 10}, d("100"), d("1000"), budgets("60", "29"), "")
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if rec.Urgency != UrgencyGood {
		t.Fatalf("urgency = %s, want good (change %s)", rec.Urgency, rec.Change)
	}
}

func TestRecommendDecrease(t *testing.T) {
	rec, ok := Recommend(Result{DaysLeft: 10}, d("100"), d("1000"), budgets("100", "50"), "")
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if rec.Urgency != UrgencyDecrease {
		t.Fatalf("urgency = %s, want decrease", rec.Urgency)
	}
	if !rec.Change.Equal(d("-60")) {
		t.Errorf("change = %s, want -60", rec.Change)
	}
}

func TestRecommendZeroCurrentEvenSplit(t *testing.T) {
	rec, ok := Recommend(Result{DaysLeft: 10}, d("0"), d("1000"), budgets("0", "0"), "")
	if !ok {
		t.Fatal("expected a recommendation")
	}
	google := rec.PerPlatform[aggregate.PlatformGoogle]
	facebook := rec.PerPlatform[aggregate.PlatformFacebook]
	if !google.Recommended.Equal(d("50")) || !facebook.Recommended.Equal(d("50")) {
		t.Fatalf("even split = %s/%s, want 50/50", google.Recommended, facebook.Recommended)
	}
}

func TestRecommendSinglePlatformClient(t *testing.T) {
	rec, ok := Recommend(Result{DaysLeft: 10}, d("0"), d("1000"), budgets("0", "0"), aggregate.PlatformFacebook)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if !rec.PerPlatform[aggregate.PlatformFacebook].Recommended.Equal(d("100")) {
		t.Fatalf("facebook share = %s, want full target", rec.PerPlatform[aggregate.PlatformFacebook].Recommended)
	}
	if !rec.PerPlatform[aggregate.PlatformGoogle].Recommended.IsZero() {
		t.Fatalf("google share = %s, want 0", rec.PerPlatform[aggregate.PlatformGoogle].Recommended)
	}
}
