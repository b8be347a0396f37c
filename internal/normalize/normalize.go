// Package normalize maps raw spreadsheet rows into canonical records.
// Header spellings drift across export formats and over time ("Amount
// spent (GBP)" vs "Cost"), so columns are discovered with an ordered
// matcher table instead of exact equality: new spellings degrade
// gracefully rather than silently dropping data.
package normalize

import (
	"strings"
	"sync"
	"time"

	decimal "github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/timeutil"
)

// Category buckets a conversion column.
type Category int

const (
	CategoryCare Category = iota
	CategoryNurse
	CategorySupport
)

// Record is one normalized row. HasDate is false when the date cell was
// missing or unparseable; such records are excluded from period-bounded
// aggregation but still carry budget and identity information.
type Record struct {
	Date        time.Time
	HasDate     bool
	Cost        decimal.Decimal
	CTR         float64
	DailyBudget decimal.Decimal
	Care        float64
	Nurse       float64
	Support     float64
	Campaign    string
	Identity    string
}

// Conversions returns the record's total across all categories.
func (r Record) Conversions() float64 {
	return r.Care + r.Nurse + r.Support
}

type conversionColumn struct {
	index    int
	category Category
}

// Shape is the resolved column layout for one header set. Resolve it once
// per source and apply it to every row.
type Shape struct {
	date        int
	cost        int
	dailyBudget int
	ctr         int
	campaign    int
	identity    int
	conversions []conversionColumn
}

type matcher func(header string) bool

func equalsAny(names ...string) matcher {
	return func(h string) bool {
		for _, n := range names {
			if h == n {
				return true
			}
		}
		return false
	}
}

func containsAny(parts ...string) matcher {
	return func(h string) bool {
		for _, p := range parts {
			if strings.Contains(h, p) {
				return true
			}
		}
		return false
	}
}

// Ordered concept table. Conversion columns exclude derived cost-per and
// rate columns; the conversion concept itself is checked after cost and
// budget so "Cost / conversion" style headers bind to neither.
var (
	matchDate        = equalsAny("date", "day")
	matchCost        = func(h string) bool { return strings.Contains(h, "amount spent") || h == "cost" }
	matchDailyBudget = func(h string) bool { return strings.Contains(h, "daily budget") || h == "budget amount" }
	matchCTR         = containsAny("ctr")
	matchAdset       = containsAny("adset name")
	matchCampaign    = containsAny("campaign")
	matchConversion  = func(h string) bool {
		if !strings.Contains(h, "application") && !strings.Contains(h, "conversion") {
			return false
		}
		return !strings.Contains(h, "cost") && !strings.Contains(h, "rate")
	}
)

// ResolveShape builds the column layout for a header row. The ad-set name
// outranks campaign naming as the identity key whenever both are present:
// budget figures repeat per ad set, not per campaign.
func ResolveShape(headers []string) Shape {
	s := Shape{date: -1, cost: -1, dailyBudget: -1, ctr: -1, campaign: -1, identity: -1}
	for i, raw := range headers {
		h := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case s.date < 0 && matchDate(h):
			s.date = i
		case s.cost < 0 && matchCost(h):
			s.cost = i
		case s.dailyBudget < 0 && matchDailyBudget(h):
			s.dailyBudget = i
		case s.ctr < 0 && matchCTR(h):
			s.ctr = i
		case matchConversion(h):
			s.conversions = append(s.conversions, conversionColumn{index: i, category: categoryFor(h)})
		case s.identity < 0 && matchAdset(h):
			s.identity = i
		case s.campaign < 0 && matchCampaign(h):
			s.campaign = i
		}
	}
	if s.identity < 0 {
		s.identity = s.campaign
	}
	return s
}

// Nurse and support are checked before the generic care fallback.
func categoryFor(header string) Category {
	switch {
	case strings.Contains(header, "nurs"):
		return CategoryNurse
	case strings.Contains(header, "support"):
		return CategorySupport
	default:
		return CategoryCare
	}
}

// Record normalizes one value row under the shape. Cells that fail to
// parse become zero values; nothing here returns an error.
func (s Shape) Record(row []string) Record {
	rec := Record{}
	if cell, ok := cellAt(row, s.date); ok {
		rec.Date, rec.HasDate = timeutil.ParseCell(cell)
	}
	if cell, ok := cellAt(row, s.cost); ok {
		rec.Cost = ParseMoney(cell)
	}
	if cell, ok := cellAt(row, s.dailyBudget); ok {
		rec.DailyBudget = ParseMoney(cell)
	}
	if cell, ok := cellAt(row, s.ctr); ok {
		rec.CTR = ParseRate(cell)
	}
	if cell, ok := cellAt(row, s.campaign); ok {
		rec.Campaign = strings.TrimSpace(cell)
	}
	if cell, ok := cellAt(row, s.identity); ok {
		rec.Identity = strings.TrimSpace(cell)
	}
	if rec.Campaign == "" {
		rec.Campaign = rec.Identity
	}
	for _, cc := range s.conversions {
		cell, ok := cellAt(row, cc.index)
		if !ok {
			continue
		}
		count := ParseRate(cell)
		switch cc.category {
		case CategoryNurse:
			rec.Nurse += count
		case CategorySupport:
			rec.Support += count
		default:
			rec.Care += count
		}
	}
	return rec
}

func cellAt(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

// ParseMoney strips currency symbols and thousands separators before
// parsing. Unparsable cells are zero, never an error.
func ParseMoney(cell string) decimal.Decimal {
	cleaned := cleanNumeric(cell)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseRate parses percentage and count cells with the same tolerance.
func ParseRate(cell string) float64 {
	d := ParseMoney(cell)
	f, _ := d.Float64()
	return f
}

func cleanNumeric(cell string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(cell))
}

// Resolver caches shapes per header set so discovery runs once per
// source layout, not per row.
type Resolver struct {
	mu     sync.RWMutex
	shapes map[string]Shape
}

func NewResolver() *Resolver {
	return &Resolver{shapes: make(map[string]Shape)}
}

// Shape returns the cached layout for the header set, resolving on miss.
func (r *Resolver) Shape(headers []string) Shape {
	key := strings.ToLower(strings.Join(headers, "\x1f"))
	r.mu.RLock()
	s, ok := r.shapes[key]
	r.mu.RUnlock()
	if ok {
		return s
	}
	s = ResolveShape(headers)
	r.mu.Lock()
	r.shapes[key] = s
	r.mu.Unlock()
	return s
}

// Records normalizes a header row plus data rows, reusing the cached
// shape when the header set has been seen before.
func (r *Resolver) Records(values [][]string) []Record {
	if len(values) < 2 {
		return nil
	}
	shape := r.Shape(values[0])
	out := make([]Record, 0, len(values)-1)
	for _, row := range values[1:] {
		out = append(out, shape.Record(row))
	}
	return out
}
