package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, APIKey: "test-key"})
}

func writeResults(w http.ResponseWriter, results []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "results": results})
}

func TestSearchFormatsArticles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/news", r.URL.Path)
		require.Equal(t, "quantum", r.URL.Query().Get("q"))
		require.Equal(t, "en", r.URL.Query().Get("language"))
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		require.Equal(t, "3", r.URL.Query().Get("size"))
		writeResults(w, []map[string]any{
			{"title": "Qubits scale up", "description": "A new chip.", "pubDate": "2026-10-01 10:00:00"},
			{"title": "Error correction", "description": nil},
		})
	})

	res := client.Search(context.Background(), "quantum")
	require.Equal(t, "🔹 Qubits scale up - A new chip.\n\n🔹 Error correction - No description", res.Text)
	require.Len(t, res.Articles, 2)
	require.Equal(t, "2026-10-01 10:00:00", res.Articles[0].PubDate)
}

func TestSearchIsIdempotentForSameResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeResults(w, []map[string]any{
			{"title": "Mars sample return", "description": "Budget talks continue."},
			{"title": "Lunar base", "description": "Site picked."},
		})
	})

	first := client.Search(context.Background(), "space")
	second := client.Search(context.Background(), "space")
	require.Equal(t, first, second)
}

func TestSearchEmptyAndFailure(t *testing.T) {
	empty := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeResults(w, nil)
	})
	require.Equal(t, Result{Text: MsgNoTopicNews}, empty.Search(context.Background(), "nothing"))

	failing := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.Equal(t, Result{Text: "Failed to fetch news. Error: 401"}, failing.Search(context.Background(), "x"))
}

func TestLatestUsesLatestEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/latest", r.URL.Path)
		require.Empty(t, r.URL.Query().Get("q"))
		require.Equal(t, "5", r.URL.Query().Get("size"))
		writeResults(w, []map[string]any{{"title": "Markets open", "description": "Stocks flat."}})
	})

	res := client.Latest(context.Background())
	require.Equal(t, "🔹 Markets open - Stocks flat.", res.Text)
}

func TestLatestFailureMessages(t *testing.T) {
	empty := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) { writeResults(w, nil) })
	require.Equal(t, MsgNoLatestNews, empty.Latest(context.Background()).Text)

	failing := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	require.Equal(t, "Failed to fetch latest news. Error: 429", failing.Latest(context.Background()).Text)
}

func TestForInterestsAggregatesPerTopic(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "2", r.URL.Query().Get("size"))
		switch r.URL.Query().Get("q") {
		case "Technology":
			writeResults(w, []map[string]any{
				{"title": "T1", "description": "d1"},
				{"title": "T2", "description": "d2"},
				{"title": "T3", "description": "d3"},
			})
		case "Sports":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			writeResults(w, []map[string]any{{"title": "S1", "description": "s1"}})
		}
	})

	res := client.ForInterests(context.Background(), []string{"Technology", "Sports", "Space"})
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t,
		"\n📰 **Technology News:**\n🔹 T1 - d1\n🔹 T2 - d2\n\n\n📰 **Space News:**\n🔹 S1 - s1",
		res.Text,
	)
	require.Len(t, res.Articles, 3)
}

func TestForInterestsWithoutInterestsOrResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) { writeResults(w, nil) })
	require.Equal(t, MsgSelectInterests, client.ForInterests(context.Background(), nil).Text)
	require.Equal(t, MsgNoInterestNews, client.ForInterests(context.Background(), []string{"Health"}).Text)
}

func TestNetworkErrorIsReportedAsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	res := NewClient(Options{BaseURL: base}).Search(context.Background(), "x")
	require.True(t, strings.HasPrefix(res.Text, "Failed to fetch news. Error: "))
	require.Empty(t, res.Articles)
}

func TestNetworkErrorsNeverExposeAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	const key = "SECRET-KEY-123"
	client := NewClient(Options{BaseURL: base, APIKey: key})
	ctx := context.Background()

	search := client.Search(ctx, "sports")
	require.True(t, strings.HasPrefix(search.Text, "Failed to fetch news. Error: newsdata fetch news: "))
	require.NotContains(t, search.Text, key)

	latest := client.Latest(ctx)
	require.True(t, strings.HasPrefix(latest.Text, "Failed to fetch latest news. Error: "))
	require.NotContains(t, latest.Text, key)

	err := client.Ping(ctx)
	require.Error(t, err)
	require.NotContains(t, err.Error(), key)
	require.NotContains(t, err.Error(), "apikey=")
}

func TestPingReportsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	err := client.Ping(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.Code)
}

func TestLookupTopic(t *testing.T) {
	topic, ok := LookupTopic(" space ")
	require.True(t, ok)
	require.Equal(t, "Space", topic.Name)
	require.Equal(t, "🚀", topic.Icon)

	_, ok = LookupTopic("gardening")
	require.False(t, ok)
	require.Len(t, Catalog, 10)
}

func TestHeadlines(t *testing.T) {
	got := Headlines([]Article{{Title: "Rates hold"}, {Title: ""}, {Title: " Rain due "}})
	require.Equal(t, "Here are today's top headlines. Rates hold. Rain due.", got)
	require.Equal(t, "Here are today's top headlines.", Headlines(nil))
}
