package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ralvey/adpace/backend/internal/cache"
	"github.com/ralvey/adpace/backend/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, ranges *cache.RangeCache) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.SheetsConfig{
		BaseURL:       srv.URL,
		SpreadsheetID: "sheet-1",
		APIKey:        "test-key",
		FetchTimeout:  5 * time.Second,
	}, ranges)
}

func TestValuesDecodesMixedCells(t *testing.T) {
	var gotPath, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Acme Google!A1:F3","values":[["Date","Cost"],["2025-06-01",12.5],[null,true]]}`))
	}, nil)

	values, err := client.Values(context.Background(), "Acme Google!A:F")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if gotPath != "/sheet-1/values/Acme%20Google%21A:F" && gotPath != "/sheet-1/values/Acme Google!A:F" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q, want test-key", gotKey)
	}
	if len(values) != 3 {
		t.Fatalf("got %d rows, want 3", len(values))
	}
	if values[1][1] != "12.5" {
		t.Errorf("numeric cell = %q, want 12.5", values[1][1])
	}
	if values[2][0] != "" || values[2][1] != "true" {
		t.Errorf("null/bool cells = %q, %q", values[2][0], values[2][1])
	}
}

func TestValuesMissingValuesField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Empty!A1:F1"}`))
	}, nil)

	values, err := client.Values(context.Background(), "Empty!A:F")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if values != nil {
		t.Fatalf("expected nil values, got %v", values)
	}
}

func TestValuesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}, nil)

	if _, err := client.Values(context.Background(), "Acme FB!A:H"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestValuesServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ranges := cache.NewRangeCache(rdb, time.Minute)

	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":[["Date","Cost"],["2025-06-01","10"]]}`))
	}, ranges)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		values, err := client.Values(ctx, "Acme Google!A:F")
		if err != nil {
			t.Fatalf("Values call %d: %v", i, err)
		}
		if len(values) != 2 {
			t.Fatalf("call %d: got %d rows, want 2", i, len(values))
		}
	}
	if calls != 1 {
		t.Fatalf("upstream called %d times, want 1", calls)
	}
}
