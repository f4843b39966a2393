package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studxhq/studx/internal/feed"
	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/source"
)

func newTestAggregator(t *testing.T) (*feed.Aggregator, map[listing.Kind]*source.MemoryAdapter) {
	t.Helper()

	adapters := map[listing.Kind]*source.MemoryAdapter{}
	all := make([]source.Adapter, 0, len(listing.Kinds()))
	for _, kind := range listing.Kinds() {
		a := source.NewMemoryAdapter(kind)
		adapters[kind] = a
		all = append(all, a)
	}

	agg := feed.New(source.NewSet(all...), feed.Options{})
	return agg, adapters
}

func seedListings(adapters map[listing.Kind]*source.MemoryAdapter, now time.Time) {
	adapters[listing.KindProduct].Put(listing.RawRecord{
		"id":         "p1",
		"title":      "Arduino Uno Starter Kit",
		"category":   "electronics",
		"price":      1200.0,
		"seller_id":  "seller-1",
		"created_at": now.Add(-1 * time.Hour).Format(time.RFC3339),
	})
	adapters[listing.KindNote].Put(listing.RawRecord{
		"id":         "n1",
		"title":      "Thermodynamics Summary",
		"category":   "mechanical",
		"price":      150.0,
		"seller_id":  "seller-2",
		"created_at": now.Add(-2 * time.Hour).Format(time.RFC3339),
	})
	adapters[listing.KindRoom].Put(listing.RawRecord{
		"id":          "r1",
		"hostel_name": "Sunrise PG",
		"college":     "iit-bombay",
		"fees":        8000.0,
		"seller_id":   "seller-1",
		"created_at":  now.Add(-3 * time.Hour).Format(time.RFC3339),
	})
}

func TestFeed_Success(t *testing.T) {
	agg, adapters := newTestAggregator(t)
	seedListings(adapters, time.Now())

	handlers := NewFeedHandlers(agg, 10, 50)

	req := httptest.NewRequest(http.MethodGet, "/feed?page=1&page_size=2", nil)
	w := httptest.NewRecorder()

	handlers.Feed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp FeedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Count != 2 {
		t.Fatalf("expected 2 items, got %d", resp.Count)
	}
	if !resp.HasMore {
		t.Error("expected has_more to be true")
	}
	// Newest first
	if resp.Items[0].ID != "p1" || resp.Items[1].ID != "n1" {
		t.Errorf("expected [p1 n1], got [%s %s]", resp.Items[0].ID, resp.Items[1].ID)
	}
}

func TestFeed_LastPage(t *testing.T) {
	agg, adapters := newTestAggregator(t)
	seedListings(adapters, time.Now())

	handlers := NewFeedHandlers(agg, 10, 50)

	req := httptest.NewRequest(http.MethodGet, "/feed?page=2&page_size=2", nil)
	w := httptest.NewRecorder()

	handlers.Feed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp FeedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Count != 1 {
		t.Fatalf("expected 1 item, got %d", resp.Count)
	}
	if resp.HasMore {
		t.Error("expected has_more to be false on the last page")
	}
	if resp.Items[0].ID != "r1" {
		t.Errorf("expected r1, got %s", resp.Items[0].ID)
	}
}

func TestFeed_InvalidPage(t *testing.T) {
	agg, _ := newTestAggregator(t)
	handlers := NewFeedHandlers(agg, 10, 50)

	tests := []struct {
		name  string
		query string
	}{
		{name: "zero page", query: "page=0"},
		{name: "negative page", query: "page=-3"},
		{name: "non-numeric page", query: "page=abc"},
		{name: "zero page size", query: "page_size=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed?"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.Feed(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error.Code != ErrCodeValidation {
				t.Errorf("expected code %s, got %s", ErrCodeValidation, resp.Error.Code)
			}
		})
	}
}

func TestFeed_PageSizeTooLarge(t *testing.T) {
	agg, _ := newTestAggregator(t)
	handlers := NewFeedHandlers(agg, 10, 50)

	req := httptest.NewRequest(http.MethodGet, "/feed?page_size=100", nil)
	w := httptest.NewRecorder()

	handlers.Feed(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestFeed_InvalidViewerLocation(t *testing.T) {
	agg, _ := newTestAggregator(t)
	handlers := NewFeedHandlers(agg, 10, 50)

	tests := []struct {
		name  string
		query string
	}{
		{name: "lat without lng", query: "lat=19.1"},
		{name: "lng without lat", query: "lng=72.8"},
		{name: "non-numeric lat", query: "lat=abc&lng=72.8"},
		{name: "out of range lat", query: "lat=120&lng=72.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed?"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.Feed(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestFeed_ViewerLocationAnnotatesDistance(t *testing.T) {
	agg, adapters := newTestAggregator(t)
	adapters[listing.KindProduct].Put(listing.RawRecord{
		"id":         "p1",
		"title":      "Bicycle",
		"location":   `{"lat": 19.07, "lng": 72.87}`,
		"created_at": time.Now().Format(time.RFC3339),
	})

	handlers := NewFeedHandlers(agg, 10, 50)

	req := httptest.NewRequest(http.MethodGet, "/feed?lat=19.07&lng=72.87", nil)
	w := httptest.NewRecorder()

	handlers.Feed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp FeedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 item, got %d", resp.Count)
	}
	if resp.Items[0].Distance == nil {
		t.Fatal("expected distance annotation")
	}
	if *resp.Items[0].Distance > 0.001 {
		t.Errorf("expected ~0 km distance, got %f", *resp.Items[0].Distance)
	}
}

func TestFeed_MethodNotAllowed(t *testing.T) {
	agg, _ := newTestAggregator(t)
	handlers := NewFeedHandlers(agg, 10, 50)

	req := httptest.NewRequest(http.MethodPost, "/feed", nil)
	w := httptest.NewRecorder()

	handlers.Feed(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestFeed_EmptySources(t *testing.T) {
	agg, _ := newTestAggregator(t)
	handlers := NewFeedHandlers(agg, 10, 50)

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	w := httptest.NewRecorder()

	handlers.Feed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp FeedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("expected empty feed, got %d items", resp.Count)
	}
	if resp.HasMore {
		t.Error("expected has_more to be false for empty feed")
	}
}
