// Package search provides evidence search backends for claim verification.
// Each provider normalises a third-party search API into ports.SearchResult
// values; the caching decorator wraps any provider to avoid re-querying the
// same backend for the same text.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/argus-eval/argus/internal/ports"
)

const tavilyDefaultBaseURL = "https://api.tavily.com"

// TavilyProvider queries the Tavily web search API.
type TavilyProvider struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// TavilyOption customises a TavilyProvider.
type TavilyOption func(*TavilyProvider)

// WithTavilyBaseURL overrides the API endpoint, primarily for tests.
func WithTavilyBaseURL(u string) TavilyOption {
	return func(p *TavilyProvider) { p.baseURL = u }
}

// WithTavilyMaxResults caps the number of results requested per query.
func WithTavilyMaxResults(n int) TavilyOption {
	return func(p *TavilyProvider) { p.maxResults = n }
}

// NewTavilyProvider creates a Tavily-backed search provider.
func NewTavilyProvider(apiKey string, opts ...TavilyOption) *TavilyProvider {
	p := &TavilyProvider{
		apiKey:     apiKey,
		baseURL:    tavilyDefaultBaseURL,
		maxResults: 5,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name identifies the provider in evidence snippets and metrics.
func (p *TavilyProvider) Name() string { return "tavily" }

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search executes the query against Tavily and returns normalised results.
func (p *TavilyProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{Query: query, MaxResults: p.maxResults})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tavily search: unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]ports.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, ports.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}
	return results, nil
}
