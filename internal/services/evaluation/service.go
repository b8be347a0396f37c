// Package evaluation orchestrates one pacing run: pull the client list,
// fan out per-client source fetches, aggregate, classify, and recommend.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/aggregate"
	"github.com/ralvey/adpace/backend/internal/billing"
	"github.com/ralvey/adpace/backend/internal/normalize"
	"github.com/ralvey/adpace/backend/internal/pacing"
	"github.com/ralvey/adpace/backend/internal/sheets"
	"github.com/ralvey/adpace/backend/internal/timeutil"
)

// RowFetcher supplies ranges of raw rows from the tabular source.
type RowFetcher interface {
	Values(ctx context.Context, rangeName string) ([][]string, error)
}

// Recorder receives evaluation metrics. Implementations must tolerate
// concurrent calls.
type Recorder interface {
	EvaluationCompleted(duration time.Duration, clients int)
	SourceFetchFailed(rangeName string)
}

// ClientReport is the engine output for one client.
type ClientReport struct {
	Name           string
	Budget         decimal.Decimal
	PeriodLabel    string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Aggregate      aggregate.Result
	Pacing         pacing.Result
	Recommendation *pacing.Recommendation
	CPA            *decimal.Decimal
}

// Report is one completed evaluation across all configured clients.
type Report struct {
	ID          uuid.UUID
	Selector    string
	GeneratedAt time.Time
	Clients     []ClientReport
}

type snapshot struct {
	generation uint64
	report     *Report
}

// Service runs evaluations and keeps the freshest report per selector.
type Service struct {
	fetcher     RowFetcher
	configRange string
	recorder    Recorder
	loc         *time.Location
	resolver    *normalize.Resolver
	now         func() time.Time

	mu      sync.Mutex
	seq     uint64
	results map[string]snapshot
}

// NewService builds the orchestrator. loc is the reporting timezone used
// to decide which calendar day "today" is; nil means UTC.
func NewService(fetcher RowFetcher, configRange string, recorder Recorder, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		fetcher:     fetcher,
		configRange: configRange,
		recorder:    recorder,
		loc:         loc,
		resolver:    normalize.NewResolver(),
		now:         time.Now,
		results:     make(map[string]snapshot),
	}
}

// Evaluate runs a full evaluation for the selector. A failure to load the
// client list fails the whole run; per-source fetch failures degrade to
// zero rows for that source only.
func (s *Service) Evaluate(ctx context.Context, sel billing.Selector) (*Report, error) {
	started := s.now()

	// Stamp the run before any fetching so a re-trigger that starts later
	// always outranks this one, however long the fetches take.
	s.mu.Lock()
	s.seq++
	generation := s.seq
	s.mu.Unlock()

	rows, err := s.fetcher.Values(ctx, s.configRange)
	if err != nil {
		return nil, fmt.Errorf("load client configuration: %w", err)
	}
	configs, err := sheets.ParseClientConfigs(rows)
	if err != nil {
		return nil, err
	}

	today := timeutil.Today(started, s.loc)
	reports := make([]ClientReport, len(configs))

	var wg sync.WaitGroup
	for i, cc := range configs {
		wg.Add(1)
		go func(i int, cc sheets.ClientConfig) {
			defer wg.Done()
			reports[i] = s.evaluateClient(ctx, cc, sel, today)
		}(i, cc)
	}
	wg.Wait()

	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })

	report := &Report{
		ID:          uuid.New(),
		Selector:    sel.String(),
		GeneratedAt: started.UTC(),
		Clients:     reports,
	}

	s.mu.Lock()
	if prev, ok := s.results[report.Selector]; !ok || generation > prev.generation {
		s.results[report.Selector] = snapshot{generation: generation, report: report}
	}
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.EvaluationCompleted(s.now().Sub(started), len(reports))
	}
	return report, nil
}

// Latest returns the stored report for the selector, if any.
func (s *Service) Latest(sel billing.Selector) (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.results[sel.String()]
	if !ok {
		return nil, false
	}
	return snap.report, true
}

func (s *Service) evaluateClient(ctx context.Context, cc sheets.ClientConfig, sel billing.Selector, today time.Time) ClientReport {
	period := billing.Resolve(cc.Cycle, sel, today)
	historical := period.End.Before(today)
	filter := cc.Filter()

	input := aggregate.Input{Sources: make(map[aggregate.Platform][]normalize.Record)}
	if !cc.SkipSpendSources {
		for platform, rangeName := range cc.SpendRanges() {
			input.Sources[platform] = s.fetchRecords(ctx, cc.Name, rangeName)
		}
	}
	input.Conversions = s.fetchRecords(ctx, cc.Name, cc.ConversionsRange())

	agg := aggregate.Build(input, period, filter)
	pace := pacing.Classify(agg.TotalSpend, cc.Budget, period, today, historical)

	report := ClientReport{
		Name:        cc.Name,
		Budget:      cc.Budget,
		PeriodLabel: period.Label,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Aggregate:   agg,
		Pacing:      pace,
	}

	if rec, ok := pacing.Recommend(pace, agg.TotalSpend, cc.Budget, agg.LatestDailyBudget, cc.SinglePlatformOnly); ok {
		report.Recommendation = &rec
	}

	if conversions := agg.TotalConversions(); conversions > 0 {
		cpa := agg.TotalSpend.Div(decimal.NewFromFloat(conversions))
		report.CPA = &cpa
	}
	return report
}

// fetchRecords degrades a failed or empty source to zero records; one
// broken tab must not sink the client, let alone the run.
func (s *Service) fetchRecords(ctx context.Context, client, rangeName string) []normalize.Record {
	values, err := s.fetcher.Values(ctx, rangeName)
	if err != nil {
		slog.Warn("source fetch failed",
			slog.String("client", client),
			slog.String("range", rangeName),
			slog.String("error", err.Error()))
		if s.recorder != nil {
			s.recorder.SourceFetchFailed(rangeName)
		}
		return nil
	}
	return s.resolver.Records(values)
}

// MonthOptions lists the selectable reporting months: the live period
// plus each month of the current year up to and including this one.
func MonthOptions(now time.Time) []string {
	options := []string{"current"}
	for m := time.January; m <= now.Month(); m++ {
		options = append(options, fmt.Sprintf("%04d-%02d", now.Year(), int(m)))
	}
	return options
}
