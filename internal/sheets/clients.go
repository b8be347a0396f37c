package sheets

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/aggregate"
	"github.com/ralvey/adpace/backend/internal/billing"
	"github.com/ralvey/adpace/backend/internal/normalize"
)

// ErrNoConfigRows signals an empty or header-only configuration tab.
// Without client rows there is nothing to evaluate.
var ErrNoConfigRows = errors.New("configuration tab has no client rows")

// ClientConfig is one evaluated client as declared on the config tab.
type ClientConfig struct {
	Name               string
	Budget             decimal.Decimal
	Cycle              billing.Cycle
	SourcePrefix       string
	SkipSpendSources   bool
	CampaignFilter     []string
	SinglePlatformOnly aggregate.Platform
}

// Filter builds the campaign filter for this client's spend sources.
func (c ClientConfig) Filter() aggregate.Filter {
	return aggregate.NewFilter(c.CampaignFilter)
}

// SpendRanges names the per-platform spend tabs for this client. The
// Google export carries columns A:F, the Facebook export A:H.
func (c ClientConfig) SpendRanges() map[aggregate.Platform]string {
	return map[aggregate.Platform]string{
		aggregate.PlatformGoogle:   c.SourcePrefix + " Google!A:F",
		aggregate.PlatformFacebook: c.SourcePrefix + " FB!A:H",
	}
}

// ConversionsRange names the conversion-count tab for this client.
func (c ClientConfig) ConversionsRange() string {
	return c.SourcePrefix + " Google Conversions!A:E"
}

// Config tab columns: name, monthly budget, cycle type, source prefix,
// skip flag, campaign list, single-platform marker.
const (
	colName = iota
	colBudget
	colCycle
	colSourcePrefix
	colSkipFlag
	colCampaigns
	colSinglePlatform
)

// ParseClientConfigs decodes config tab rows into client configs. The
// first row is a header. Rows that fail validation are skipped with a
// warning so one bad client cannot block the rest of the run.
func ParseClientConfigs(values [][]string) ([]ClientConfig, error) {
	if len(values) < 2 {
		return nil, ErrNoConfigRows
	}

	configs := make([]ClientConfig, 0, len(values)-1)
	for i, row := range values[1:] {
		cc, err := parseClientRow(row)
		if err != nil {
			slog.Warn("skipping client config row",
				"row", i+2,
				"client", cell(row, colName),
				"error", err)
			continue
		}
		configs = append(configs, cc)
	}

	if len(configs) == 0 {
		return nil, ErrNoConfigRows
	}
	return configs, nil
}

func parseClientRow(row []string) (ClientConfig, error) {
	name := strings.TrimSpace(cell(row, colName))
	if name == "" {
		return ClientConfig{}, errors.New("missing client name")
	}

	budget := normalize.ParseMoney(cell(row, colBudget))
	if !budget.IsPositive() {
		return ClientConfig{}, fmt.Errorf("budget %q is not a positive amount", cell(row, colBudget))
	}

	cycle, err := billing.ParseCycle(cell(row, colCycle))
	if err != nil {
		return ClientConfig{}, err
	}

	prefix := strings.TrimSpace(cell(row, colSourcePrefix))
	if prefix == "" {
		prefix = name
	}

	cc := ClientConfig{
		Name:             name,
		Budget:           budget,
		Cycle:            cycle,
		SourcePrefix:     prefix,
		SkipSpendSources: strings.EqualFold(strings.TrimSpace(cell(row, colSkipFlag)), "true"),
		CampaignFilter:   splitCampaigns(cell(row, colCampaigns)),
	}

	cc.SinglePlatformOnly, err = parseSinglePlatform(cell(row, colSinglePlatform))
	if err != nil {
		return ClientConfig{}, err
	}
	return cc, nil
}

func splitCampaigns(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseSinglePlatform(raw string) (aggregate.Platform, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "google":
		return aggregate.PlatformGoogle, nil
	case "facebook", "fb", "meta":
		return aggregate.PlatformFacebook, nil
	default:
		return "", fmt.Errorf("unknown platform %q", raw)
	}
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
