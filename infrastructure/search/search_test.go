package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-eval/argus/internal/ports"
)

func TestTavilyProviderSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"title": "Result One", "url": "https://example.com/1", "content": "first body"},
				{"title": "Result Two", "url": "https://example.com/2", "content": "second body"}
			]
		}`))
	}))
	defer server.Close()

	provider := NewTavilyProvider("tvly-key", WithTavilyBaseURL(server.URL))
	results, err := provider.Search(context.Background(), "transformer models")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Result One", results[0].Title)
	assert.Equal(t, "https://example.com/2", results[1].URL)
	assert.Equal(t, "tavily", provider.Name())
}

func TestTavilyProviderSurfacesHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewTavilyProvider("tvly-key", WithTavilyBaseURL(server.URL))
	_, err := provider.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestArxivProviderParsesAtomFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("search_query"), "all:")

		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All You Need</title>
    <summary>
      The dominant sequence transduction models are based on recurrent networks.
    </summary>
  </entry>
</feed>`))
	}))
	defer server.Close()

	provider := NewArxivProvider(WithArxivBaseURL(server.URL))
	results, err := provider.Search(context.Background(), "attention mechanisms")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Attention Is All You Need", results[0].Title)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", results[0].URL)
	assert.Contains(t, results[0].Content, "sequence transduction")
	assert.Equal(t, "arxiv", provider.Name())
}

func TestArxivProviderEmptyFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer server.Close()

	provider := NewArxivProvider(WithArxivBaseURL(server.URL))
	results, err := provider.Search(context.Background(), "nonexistent topic")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScholarProviderSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google_scholar", q.Get("engine"))
		assert.Equal(t, "serp-key", q.Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"organic_results": [
				{"title": "Deep Residual Learning", "link": "https://example.org/resnet", "snippet": "residual networks"}
			]
		}`))
	}))
	defer server.Close()

	provider := NewScholarProvider("serp-key", WithScholarBaseURL(server.URL))
	results, err := provider.Search(context.Background(), "residual networks")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Deep Residual Learning", results[0].Title)
	assert.Equal(t, "scholar", provider.Name())
}

// countingProvider counts Search invocations for cache tests.
type countingProvider struct {
	calls   atomic.Int64
	results []ports.SearchResult
	err     error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

func TestCachedProviderMemoisesResults(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{results: []ports.SearchResult{{Title: "hit"}}}
	cached := NewCachedProvider(inner, time.Minute)

	for i := 0; i < 3; i++ {
		results, err := cached.Search(context.Background(), "same query")
		require.NoError(t, err)
		require.Len(t, results, 1)
	}
	assert.Equal(t, int64(1), inner.calls.Load())

	_, err := cached.Search(context.Background(), "different query")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.calls.Load())
	assert.Equal(t, "counting", cached.Name())
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{err: errors.New("backend down")}
	cached := NewCachedProvider(inner, time.Minute)

	_, err := cached.Search(context.Background(), "q")
	require.Error(t, err)
	_, err = cached.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, int64(2), inner.calls.Load())
}
