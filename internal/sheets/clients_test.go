package sheets

import (
	"errors"
	"testing"

	"github.com/ralvey/adpace/backend/internal/aggregate"
)

func TestParseClientConfigs(t *testing.T) {
	values := [][]string{
		{"Client", "Budget", "Cycle", "Prefix", "Skip", "Campaigns", "Platform"},
		{"Acme", "1,500.00", "standard", "", "FALSE", "*", ""},
		{"Beta Care", "900", "cutoff26", "Beta", "TRUE", "Brand, Generic", "google"},
	}

	configs, err := ParseClientConfigs(values)
	if err != nil {
		t.Fatalf("ParseClientConfigs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("got %d configs, want 2", len(configs))
	}

	acme := configs[0]
	if acme.Name != "Acme" || acme.SourcePrefix != "Acme" {
		t.Errorf("name/prefix = %q/%q", acme.Name, acme.SourcePrefix)
	}
	if acme.Budget.String() != "1500" {
		t.Errorf("budget = %s, want 1500", acme.Budget)
	}
	if !acme.Cycle.Standard() {
		t.Error("expected standard cycle")
	}
	if !acme.Filter().Matches("anything") {
		t.Error("wildcard filter should match all campaigns")
	}

	beta := configs[1]
	if beta.Cycle.CutoffDay != 26 {
		t.Errorf("cutoff = %d, want 26", beta.Cycle.CutoffDay)
	}
	if !beta.SkipSpendSources {
		t.Error("expected skip flag set")
	}
	if len(beta.CampaignFilter) != 2 || beta.CampaignFilter[1] != "Generic" {
		t.Errorf("campaigns = %v", beta.CampaignFilter)
	}
	if beta.SinglePlatformOnly != aggregate.PlatformGoogle {
		t.Errorf("platform = %q", beta.SinglePlatformOnly)
	}
	if beta.SourcePrefix != "Beta" {
		t.Errorf("prefix = %q, want Beta", beta.SourcePrefix)
	}
}

func TestParseClientConfigsSkipsBadRows(t *testing.T) {
	values := [][]string{
		{"Client", "Budget", "Cycle"},
		{"", "1000", "standard"},
		{"No Budget", "n/a", "standard"},
		{"Bad Cycle", "1000", "cutoff99"},
		{"Good", "1000", ""},
	}

	configs, err := ParseClientConfigs(values)
	if err != nil {
		t.Fatalf("ParseClientConfigs: %v", err)
	}
	if len(configs) != 1 || configs[0].Name != "Good" {
		t.Fatalf("configs = %+v, want only Good", configs)
	}
}

func TestParseClientConfigsEmpty(t *testing.T) {
	for _, values := range [][][]string{
		nil,
		{{"Client", "Budget"}},
	} {
		if _, err := ParseClientConfigs(values); !errors.Is(err, ErrNoConfigRows) {
			t.Fatalf("err = %v, want ErrNoConfigRows", err)
		}
	}
}

func TestSourceRanges(t *testing.T) {
	cc := ClientConfig{SourcePrefix: "Acme"}
	ranges := cc.SpendRanges()
	if ranges[aggregate.PlatformGoogle] != "Acme Google!A:F" {
		t.Errorf("google range = %q", ranges[aggregate.PlatformGoogle])
	}
	if ranges[aggregate.PlatformFacebook] != "Acme FB!A:H" {
		t.Errorf("facebook range = %q", ranges[aggregate.PlatformFacebook])
	}
	if got := cc.ConversionsRange(); got != "Acme Google Conversions!A:E" {
		t.Errorf("conversions range = %q", got)
	}
}
