// Package aggregate folds normalized records into per-period totals.
// Results are plain values built in one pass and never mutated after
// return.
package aggregate

import (
	"sort"
	"time"

	decimal "github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/billing"
	"github.com/ralvey/adpace/backend/internal/normalize"
	"github.com/ralvey/adpace/backend/internal/timeutil"
)

// Platform identifies an ad platform data source.
type Platform string

const (
	PlatformGoogle   Platform = "google"
	PlatformFacebook Platform = "facebook"
)

// Platforms lists the spend platforms in stable order.
var Platforms = []Platform{PlatformGoogle, PlatformFacebook}

// Filter restricts which campaigns count toward a client's totals.
type Filter struct {
	wildcard bool
	names    map[string]struct{}
}

// NewFilter builds a campaign filter. A "*" entry, or an empty list,
// matches everything.
func NewFilter(names []string) Filter {
	f := Filter{names: make(map[string]struct{})}
	for _, n := range names {
		if n == "*" {
			f.wildcard = true
			continue
		}
		if n != "" {
			f.names[n] = struct{}{}
		}
	}
	if len(f.names) == 0 {
		f.wildcard = true
	}
	return f
}

// Matches reports whether the campaign passes the filter.
func (f Filter) Matches(campaign string) bool {
	if f.wildcard {
		return true
	}
	_, ok := f.names[campaign]
	return ok
}

// MatchesExact ignores the wildcard; conversion-only sources always
// filter by literal campaign names.
func (f Filter) MatchesExact(campaign string) bool {
	_, ok := f.names[campaign]
	return ok
}

// Input carries one client's records across its configured sources.
type Input struct {
	Sources     map[Platform][]normalize.Record
	Conversions []normalize.Record
}

// Result is the per-client, per-period aggregate.
type Result struct {
	TotalSpend        decimal.Decimal
	SpendByPlatform   map[Platform]decimal.Decimal
	Care              float64
	Nurse             float64
	Support           float64
	AverageCTR        float64
	LatestDailyBudget map[Platform]decimal.Decimal
}

// TotalConversions sums the category totals.
func (r Result) TotalConversions() float64 {
	return r.Care + r.Nurse + r.Support
}

// CurrentDailyBudget sums the latest per-platform daily budgets.
func (r Result) CurrentDailyBudget() decimal.Decimal {
	total := decimal.Zero
	for _, v := range r.LatestDailyBudget {
		total = total.Add(v)
	}
	return total
}

type accumulator struct {
	spend    decimal.Decimal
	byPlat   map[Platform]decimal.Decimal
	care     float64
	nurse    float64
	support  float64
	ctrSum   float64
	ctrCount int
	budgets  map[Platform]decimal.Decimal
}

// Build computes the aggregate for one client. Spend, conversions, and
// CTR are bounded by the period (inclusive, day-truncated) and the
// campaign filter; daily-budget selection deliberately is not
// period-bounded, because campaign settings routinely predate the period.
func Build(in Input, period billing.Period, filter Filter) Result {
	acc := accumulator{
		spend:   decimal.Zero,
		byPlat:  make(map[Platform]decimal.Decimal, len(in.Sources)),
		budgets: make(map[Platform]decimal.Decimal, len(in.Sources)),
	}

	for platform, records := range in.Sources {
		platSpend := decimal.Zero
		for _, rec := range records {
			if !filter.Matches(rec.Campaign) {
				continue
			}
			if !rec.HasDate || !period.Contains(rec.Date) {
				continue
			}
			platSpend = platSpend.Add(rec.Cost)
			acc.care += rec.Care
			acc.nurse += rec.Nurse
			acc.support += rec.Support
			if rec.CTR > 0 {
				acc.ctrSum += rec.CTR
				acc.ctrCount++
			}
		}
		acc.spend = acc.spend.Add(platSpend)
		acc.byPlat[platform] = platSpend
		acc.budgets[platform] = latestDailyBudget(records, filter)
	}

	for _, rec := range in.Conversions {
		if !filter.MatchesExact(rec.Campaign) {
			continue
		}
		if !rec.HasDate || !period.Contains(rec.Date) {
			continue
		}
		acc.care += rec.Care
		acc.nurse += rec.Nurse
		acc.support += rec.Support
	}

	avgCTR := 0.0
	if acc.ctrCount > 0 {
		avgCTR = acc.ctrSum / float64(acc.ctrCount)
	}

	return Result{
		TotalSpend:        acc.spend,
		SpendByPlatform:   acc.byPlat,
		Care:              acc.care,
		Nurse:             acc.nurse,
		Support:           acc.support,
		AverageCTR:        avgCTR,
		LatestDailyBudget: acc.budgets,
	}
}

// latestDailyBudget models "current campaign settings": group budget
// figures by calendar day across the platform's entire history, summing
// distinct identity keys per day, then take the sum on the most recent
// day. Building the full map and selecting the max key avoids the
// tie-break bugs a running max comparison invites.
func latestDailyBudget(records []normalize.Record, filter Filter) decimal.Decimal {
	perDay := make(map[time.Time]map[string]decimal.Decimal)
	for _, rec := range records {
		if !rec.HasDate || rec.DailyBudget.IsZero() {
			continue
		}
		if !filter.Matches(rec.Campaign) {
			continue
		}
		day := timeutil.TruncateToDay(rec.Date)
		byIdentity, ok := perDay[day]
		if !ok {
			byIdentity = make(map[string]decimal.Decimal)
			perDay[day] = byIdentity
		}
		byIdentity[rec.Identity] = rec.DailyBudget
	}
	if len(perDay) == 0 {
		return decimal.Zero
	}

	days := make([]time.Time, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	latest := days[len(days)-1]

	total := decimal.Zero
	for _, budget := range perDay[latest] {
		total = total.Add(budget)
	}
	return total
}
