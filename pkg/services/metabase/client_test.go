package metabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDashboardID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"dashboard path with slug", "https://bi.example.com/dashboard/17-app-analytics", "17"},
		{"dashboard path without slug", "https://bi.example.com/dashboard/17", "17"},
		{"trailing segment", "17-app-analytics", "17"},
		{"bare id", "17", "17"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractDashboardID(tc.url))
		})
	}
}

func TestNormalizeAPIURL(t *testing.T) {
	assert.Equal(t, "https://bi.example.com/api", normalizeAPIURL("https://bi.example.com"))
	assert.Equal(t, "https://bi.example.com/api", normalizeAPIURL("https://bi.example.com/"))
	assert.Equal(t, "https://bi.example.com/api", normalizeAPIURL("https://bi.example.com/api"))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIURL:       server.URL,
		APIKey:       "mb-key",
		DashboardURL: server.URL + "/dashboard/17-app-analytics",
		CardPacing:   time.Millisecond,
		RetryBackoff: time.Millisecond,
	})
}

func dashboardPayload(cardIDs ...int) map[string]any {
	cards := make([]map[string]any, 0, len(cardIDs))
	for _, id := range cardIDs {
		cards = append(cards, map[string]any{
			"id": id * 1000,
			"card": map[string]any{
				"id":      id,
				"name":    fmt.Sprintf("Card %d", id),
				"display": "scalar",
			},
		})
	}
	return map[string]any{
		"id":          17,
		"name":        "App Analytics - Yesterday",
		"description": "daily numbers",
		"dashcards":   cards,
	}
}

func scalarQueryPayload(value int) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"rows": [][]any{{value}},
			"cols": []map[string]any{{"name": "count", "display_name": "Count"}},
		},
	}
}

func TestFetchDashboardSnapshot_Direct(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/17", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "mb-key", r.Header.Get("x-api-key"))
		_ = json.NewEncoder(w).Encode(dashboardPayload(1, 2, 3))
	})
	for i := 1; i <= 3; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/api/card/%d/query", i), func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(scalarQueryPayload(100 + i))
		})
	}

	client := newTestClient(t, mux)
	snapshot := client.FetchDashboardSnapshot(context.Background())

	assert.Equal(t, domain.SourceDirect, snapshot.Source)
	assert.Equal(t, "App Analytics - Yesterday", snapshot.Name)
	assert.Equal(t, "17", snapshot.DashboardID)
	assert.Equal(t, 3, snapshot.TotalCardsAttempted)
	assert.Equal(t, 3, snapshot.SuccessfulCards)
	require.Len(t, snapshot.Cards, 3)
	assert.LessOrEqual(t, snapshot.SuccessfulCards, snapshot.TotalCardsAttempted)

	value, ok := snapshot.Cards[0].ScalarValue()
	require.True(t, ok)
	assert.Equal(t, float64(101), value)
}

func TestFetchDashboardSnapshot_NotFoundCardSkippedWithoutRetry(t *testing.T) {
	var mu sync.Mutex
	queryCalls := map[string]int{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/17", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dashboardPayload(1, 2, 3, 4, 5))
	})
	mux.HandleFunc("/api/card/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queryCalls[r.URL.Path]++
		mu.Unlock()

		if r.URL.Path == "/api/card/3/query" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(scalarQueryPayload(7))
	})

	client := newTestClient(t, mux)
	snapshot := client.FetchDashboardSnapshot(context.Background())

	assert.Equal(t, domain.SourceDirect, snapshot.Source)
	require.Len(t, snapshot.Cards, 4, "the deleted card is omitted")
	assert.Equal(t, 5, snapshot.TotalCardsAttempted)
	assert.Equal(t, 4, snapshot.SuccessfulCards)
	assert.Equal(t, 1, queryCalls["/api/card/3/query"], "404 must not be retried")
	for _, card := range snapshot.Cards {
		assert.NotEqual(t, "3", card.ID)
	}
}

func TestFetchDashboardSnapshot_TransientCardErrorRetriedOnce(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/17", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dashboardPayload(1))
	})
	mux.HandleFunc("/api/card/1/query", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()

		if n == 1 {
			http.Error(w, "temporarily unavailable", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(scalarQueryPayload(55))
	})

	client := newTestClient(t, mux)
	snapshot := client.FetchDashboardSnapshot(context.Background())

	assert.Equal(t, domain.SourceDirect, snapshot.Source)
	require.Len(t, snapshot.Cards, 1)
	assert.Equal(t, 2, attempts)
}

func TestFetchDashboardSnapshot_DashboardFetchFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/17", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	client := newTestClient(t, mux)
	snapshot := client.FetchDashboardSnapshot(context.Background())

	assert.Equal(t, domain.SourceFallback, snapshot.Source)
	require.Len(t, snapshot.Cards, 4)
	assert.Equal(t, "App Analytics - Yesterday (Fallback)", snapshot.Name)
}

func TestFetchDashboardSnapshot_AllCardsFail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/17", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dashboardPayload(1, 2))
	})
	mux.HandleFunc("/api/card/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	snapshot := client.FetchDashboardSnapshot(context.Background())

	assert.Equal(t, domain.SourceFallback, snapshot.Source)
	require.Len(t, snapshot.Cards, 4, "fallback sample set is fixed at four cards")
}

func TestFallbackSnapshot(t *testing.T) {
	client := NewClient(Config{APIURL: "https://bi.example.com", APIKey: "k", DashboardURL: "17"})
	snapshot := client.FallbackSnapshot()

	assert.Equal(t, domain.SourceFallback, snapshot.Source)
	require.Len(t, snapshot.Cards, 4)
	assert.LessOrEqual(t, snapshot.SuccessfulCards, snapshot.TotalCardsAttempted)

	titles := make([]string, 0, 4)
	for _, card := range snapshot.Cards {
		titles = append(titles, card.Title)
		value, ok := card.ScalarValue()
		require.True(t, ok)
		assert.NotNil(t, value)
	}
	assert.Contains(t, titles, "New Users Created Yesterday")
	assert.Contains(t, titles, "Quotations_Created_Yesterday")
}
