// Package billing resolves a client's billing cycle into concrete period
// bounds. Standard clients reset on calendar months; others reset on a
// fixed cutoff day (the 26th, 21st, and 11th are in live use), so their
// periods always straddle two calendar months.
package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ralvey/adpace/backend/internal/timeutil"
)

var (
	ErrUnknownCycle    = errors.New("unknown billing cycle")
	ErrInvalidSelector = errors.New("invalid month selector")
)

// Cycle describes when a client's budget resets.
type Cycle struct {
	CutoffDay int // 0 for standard calendar months
}

// Standard reports whether the cycle follows calendar months.
func (c Cycle) Standard() bool { return c.CutoffDay == 0 }

// ParseCycle accepts "standard" or "cutoffN" with N in 1..28. The cap at 28
// keeps the cutoff valid in February.
func ParseCycle(s string) (Cycle, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "standard" {
		return Cycle{}, nil
	}
	if rest, ok := strings.CutPrefix(v, "cutoff"); ok {
		day, err := strconv.Atoi(rest)
		if err == nil && day >= 1 && day <= 28 {
			return Cycle{CutoffDay: day}, nil
		}
	}
	return Cycle{}, fmt.Errorf("%w: %q", ErrUnknownCycle, s)
}

// Selector names the reporting month: the live period, or an explicit
// year/month pair for historical review.
type Selector struct {
	Current bool
	Year    int
	Month   time.Month
}

// ParseSelector accepts "current" or "YYYY-MM".
func ParseSelector(s string) (Selector, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "current" {
		return Selector{Current: true}, nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	return Selector{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the selector in the form the API accepts.
func (s Selector) String() string {
	if s.Current {
		return "current"
	}
	return fmt.Sprintf("%04d-%02d", s.Year, int(s.Month))
}

// Period is an inclusive date range with a display label.
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports inclusive membership at day granularity.
func (p Period) Contains(t time.Time) bool {
	return timeutil.SameOrAfter(t, p.Start) && timeutil.SameOrBefore(t, p.End)
}

// Days is the inclusive day count of the period.
func (p Period) Days() int {
	return timeutil.DaysInclusive(p.Start, p.End)
}

// Resolve computes the period for the cycle under the given selector.
// Historical selectors always resolve month-relative; only the current
// selector consults today's day-of-month.
func Resolve(cycle Cycle, sel Selector, now time.Time) Period {
	now = timeutil.TruncateToDay(now)

	if cycle.Standard() {
		year, month := sel.Year, sel.Month
		if sel.Current {
			year, month = now.Year(), now.Month()
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return newPeriod(start, end)
	}

	cutoff := cycle.CutoffDay
	if sel.Current {
		// On or past the cutoff the active period began this month;
		// before it, the period began last month.
		start := time.Date(now.Year(), now.Month(), cutoff, 0, 0, 0, 0, time.UTC)
		if now.Day() < cutoff {
			start = start.AddDate(0, -1, 0)
		}
		return newPeriod(start, start.AddDate(0, 1, -1))
	}

	// time.Date normalizes month underflow, so January resolves to the
	// prior December automatically.
	start := time.Date(sel.Year, sel.Month-1, cutoff, 0, 0, 0, 0, time.UTC)
	return newPeriod(start, start.AddDate(0, 1, -1))
}

func newPeriod(start, end time.Time) Period {
	return Period{
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s %d - %s %d", start.Format("Jan"), start.Day(), end.Format("Jan"), end.Day()),
	}
}
