package pacing

import (
	"fmt"
	"math"

	decimal "github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/aggregate"
)

// Urgency classifies how hard the recommendation should be pushed.
type Urgency string

const (
	UrgencyGood     Urgency = "good"
	UrgencyIncrease Urgency = "increase"
	UrgencyDecrease Urgency = "decrease"
	UrgencyCritical Urgency = "critical"
)

// A change within these bounds means the current budget is already close
// enough to the target.
const (
	nearTargetPct = 5.0
	nearTargetAbs = 1.0
)

// PlatformSplit is the recommended daily budget for one platform and the
// delta from its current setting.
type PlatformSplit struct {
	Recommended decimal.Decimal
	Change      decimal.Decimal
}

// Recommendation is the actionable outcome for one client period.
type Recommendation struct {
	TargetDailyBudget decimal.Decimal
	Change            decimal.Decimal
	ChangePct         float64
	Urgency           Urgency
	Message           string
	PerPlatform       map[aggregate.Platform]PlatformSplit
}

// Recommend derives the daily-budget correction. The second return is
// false when the period is already over; there is nothing to recommend
// and no days left to divide by.
func Recommend(p Result, totalSpend, budget decimal.Decimal, current map[aggregate.Platform]decimal.Decimal, singlePlatform aggregate.Platform) (Recommendation, bool) {
	if p.DaysLeft <= 0 {
		return Recommendation{}, false
	}

	currentTotal := decimal.Zero
	for _, v := range current {
		currentTotal = currentTotal.Add(v)
	}

	if totalSpend.GreaterThanOrEqual(budget) {
		rec := Recommendation{
			TargetDailyBudget: decimal.Zero,
			Change:            currentTotal.Neg(),
			ChangePct:         -100,
			Urgency:           UrgencyCritical,
			Message:           "Already over budget - pause campaigns to avoid further overspend",
			PerPlatform:       make(map[aggregate.Platform]PlatformSplit, len(current)),
		}
		for platform, cur := range current {
			rec.PerPlatform[platform] = PlatformSplit{Recommended: decimal.Zero, Change: cur.Neg()}
		}
		return rec, true
	}

	target := budget.Sub(totalSpend).Div(decimal.NewFromInt(int64(p.DaysLeft)))
	if target.IsNegative() {
		target = decimal.Zero
	}
	change := target.Sub(currentTotal)

	changePct := 0.0
	if currentTotal.IsPositive() {
		changePct, _ = change.Div(currentTotal).Mul(decimal.NewFromInt(100)).Float64()
	}

	absChange, _ := change.Abs().Float64()
	var urgency Urgency
	var message string
	switch {
	case absChange < nearTargetAbs || (currentTotal.IsPositive() && math.Abs(changePct) < nearTargetPct):
		urgency = UrgencyGood
		message = "Current budget is close to optimal"
	case change.IsPositive():
		urgency = UrgencyIncrease
		message = fmt.Sprintf("Increase budget to hit target (%.0f%% increase needed)", changePct)
	default:
		urgency = UrgencyDecrease
		message = fmt.Sprintf("Decrease budget to avoid overspend (%.0f%% decrease needed)", math.Abs(changePct))
	}

	return Recommendation{
		TargetDailyBudget: target,
		Change:            change,
		ChangePct:         changePct,
		Urgency:           urgency,
		Message:           message,
		PerPlatform:       splitAcrossPlatforms(target, currentTotal, current, singlePlatform),
	}, true
}

// splitAcrossPlatforms allocates the target in proportion to each
// platform's current share. With no current budgets anywhere the split
// goes wholly to a declared single-platform client, or evenly otherwise.
func splitAcrossPlatforms(target, currentTotal decimal.Decimal, current map[aggregate.Platform]decimal.Decimal, singlePlatform aggregate.Platform) map[aggregate.Platform]PlatformSplit {
	split := make(map[aggregate.Platform]PlatformSplit, len(aggregate.Platforms))

	currentFor := func(p aggregate.Platform) decimal.Decimal {
		if v, ok := current[p]; ok {
			return v
		}
		return decimal.Zero
	}

	if !currentTotal.IsPositive() {
		if singlePlatform != "" {
			for _, platform := range aggregate.Platforms {
				rec := decimal.Zero
				if platform == singlePlatform {
					rec = target
				}
				split[platform] = PlatformSplit{Recommended: rec, Change: rec.Sub(currentFor(platform))}
			}
			return split
		}
		even := target.Div(decimal.NewFromInt(int64(len(aggregate.Platforms))))
		for _, platform := range aggregate.Platforms {
			split[platform] = PlatformSplit{Recommended: even, Change: even.Sub(currentFor(platform))}
		}
		return split
	}

	for _, platform := range aggregate.Platforms {
		cur := currentFor(platform)
		rec := target.Mul(cur).Div(currentTotal)
		split[platform] = PlatformSplit{Recommended: rec, Change: rec.Sub(cur)}
	}
	return split
}
