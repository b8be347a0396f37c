// Package sheets talks to the tabular data source: a spreadsheet API
// returning ranges of string rows. Everything downstream treats the
// source as opaque rows; this is the only package that knows the wire
// shape.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ralvey/adpace/backend/internal/cache"
	"github.com/ralvey/adpace/backend/internal/config"
)

// Client fetches value ranges, consulting the range cache first.
type Client struct {
	baseURL       string
	spreadsheetID string
	apiKey        string
	httpClient    *http.Client
	ranges        *cache.RangeCache
}

// NewClient constructs a values client. The cache may be nil.
func NewClient(cfg config.SheetsConfig, ranges *cache.RangeCache) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		apiKey:        cfg.APIKey,
		httpClient:    &http.Client{Timeout: cfg.FetchTimeout},
		ranges:        ranges,
	}
}

type valuesResponse struct {
	Values [][]interface{} `json:"values"`
}

// Values fetches a named range as a matrix of strings. An absent values
// field decodes to nil: "no data for this source" is not an error, only
// transport and upstream failures are.
func (c *Client) Values(ctx context.Context, rangeName string) ([][]string, error) {
	if cached, ok := c.ranges.Get(ctx, rangeName); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.baseURL, c.spreadsheetID, url.PathEscape(rangeName), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build values request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch range %q: %w", rangeName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch range %q: upstream status %d: %s", rangeName, resp.StatusCode, string(body))
	}

	var decoded valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode range %q: %w", rangeName, err)
	}

	values := toStringMatrix(decoded.Values)
	if values != nil {
		c.ranges.Set(ctx, rangeName, values)
	}
	return values, nil
}

// The API reports numeric cells as JSON numbers depending on the render
// option; normalize everything to strings before handing rows onward.
func toStringMatrix(values [][]interface{}) [][]string {
	if values == nil {
		return nil
	}
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		out[i] = cells
	}
	return out
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
