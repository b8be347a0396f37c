// Package pacing projects spend across a billing period and decides what
// daily-budget change would land the client inside its ceiling.
package pacing

import (
	"time"

	decimal "github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/billing"
	"github.com/ralvey/adpace/backend/internal/timeutil"
)

// Status is the discrete pacing classification.
type Status string

const (
	StatusOnTrack    Status = "ON_TRACK"
	StatusHot        Status = "HOT"
	StatusCold       Status = "COLD"
	StatusOverBudget Status = "OVER_BUDGET"
	StatusComplete   Status = "COMPLETE"
)

// Spend outside +/-5% of the ceiling counts as off-pace. Thresholds are
// strict inequalities: projecting exactly 105% is still on track.
var (
	hotFactor  = decimal.RequireFromString("1.05")
	coldFactor = decimal.RequireFromString("0.95")
)

// Result carries the projection and classification for one client period.
type Result struct {
	DaysTotal      int
	DaysElapsed    int
	DaysLeft       int
	ProjectedSpend decimal.Decimal
	PctUsed        float64
	Status         Status
}

// Classify computes the linear projection and pacing status. Historical
// (concluded) periods are always COMPLETE; a period mid-gap after a cycle
// rollover simply clamps to zero elapsed days.
func Classify(totalSpend, budget decimal.Decimal, period billing.Period, now time.Time, historical bool) Result {
	daysTotal := period.Days()

	daysElapsed := timeutil.DaysInclusive(period.Start, now)
	if daysElapsed > daysTotal {
		daysElapsed = daysTotal
	}
	if historical {
		daysElapsed = daysTotal
	}
	daysLeft := daysTotal - daysElapsed
	if daysLeft < 0 {
		daysLeft = 0
	}

	projected := totalSpend
	if daysElapsed > 0 && daysLeft > 0 {
		perDay := totalSpend.Div(decimal.NewFromInt(int64(daysElapsed)))
		projected = totalSpend.Add(perDay.Mul(decimal.NewFromInt(int64(daysLeft))))
	}

	pctUsed := 0.0
	if budget.IsPositive() {
		pctUsed, _ = totalSpend.Div(budget).Mul(decimal.NewFromInt(100)).Float64()
	}

	status := StatusOnTrack
	if projected.GreaterThan(budget.Mul(hotFactor)) {
		status = StatusHot
	}
	if projected.LessThan(budget.Mul(coldFactor)) {
		status = StatusCold
	}
	if totalSpend.GreaterThanOrEqual(budget) {
		status = StatusOverBudget
	}
	if historical {
		status = StatusComplete
	}

	return Result{
		DaysTotal:      daysTotal,
		DaysElapsed:    daysElapsed,
		DaysLeft:       daysLeft,
		ProjectedSpend: projected,
		PctUsed:        pctUsed,
		Status:         status,
	}
}
