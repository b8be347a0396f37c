package timeutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet exports mix ISO dates, UK dates, and whatever the platform
// felt like emitting that week. ISO is tried first: a year-leading value is
// unambiguous, while "07/03/2025" is not.
var (
	isoPattern = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	ukPattern  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
)

// Layouts for the generic fallback sweep.
var fallbackLayouts = []string{
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseCell interprets a free-form date cell. The boolean is false when the
// cell holds nothing parseable; that is a normal case and callers skip the
// record rather than erroring.
func ParseCell(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := ukPattern.FindStringSubmatch(s); m != nil {
		return makeDate(m[3], m[2], m[1])
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TruncateToDay(t), true
		}
	}
	return time.Time{}, false
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject such cells.
	if t.Day() != d || t.Month() != time.Month(m) {
		return time.Time{}, false
	}
	return t, true
}

// TruncateToDay normalizes a timestamp to midnight UTC so that time-of-day
// never affects period membership.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns midnight UTC for the calendar date now falls on in loc.
// Reporting runs against the client's wall clock, record dates stay UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days from start through end, both included.
// Returns 0 when end precedes start.
func DaysInclusive(start, end time.Time) int {
	s := TruncateToDay(start)
	e := TruncateToDay(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// SameOrAfter reports whether a falls on or after b at day granularity.
func SameOrAfter(a, b time.Time) bool {
	return !TruncateToDay(a).Before(TruncateToDay(b))
}

// SameOrBefore reports whether a falls on or before b at day granularity.
func SameOrBefore(a, b time.Time) bool {
	return !TruncateToDay(a).After(TruncateToDay(b))
}
