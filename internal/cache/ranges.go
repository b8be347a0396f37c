package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RangeCache stores fetched spreadsheet value matrices keyed by range so a
// burst of evaluations does not hammer the upstream API. Entries are
// short-lived; the cache is an accelerator, never a source of truth.
type RangeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRangeCache(client *redis.Client, ttl time.Duration) *RangeCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RangeCache{client: client, ttl: ttl}
}

// Get returns the cached value matrix for the range, if present. A nil
// cache or miss is reported as absent; errors are deliberately swallowed
// because a cache failure must never fail a fetch.
func (c *RangeCache) Get(ctx context.Context, rangeName string) ([][]string, bool) {
	if c == nil || c.client == nil || rangeName == "" {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.prefixed(rangeName)).Bytes()
	if err != nil {
		return nil, false
	}
	var values [][]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false
	}
	return values, true
}

// Set stores the value matrix under the range key.
func (c *RangeCache) Set(ctx context.Context, rangeName string, values [][]string) {
	if c == nil || c.client == nil || rangeName == "" || values == nil {
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefixed(rangeName), data, c.ttl)
}

func (c *RangeCache) prefixed(rangeName string) string {
	return "range:" + rangeName
}
