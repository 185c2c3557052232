package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/argus-eval/argus/internal/ports"
)

const scholarDefaultBaseURL = "https://serpapi.com"

// ScholarProvider queries Google Scholar through the SerpAPI gateway.
type ScholarProvider struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// ScholarOption customises a ScholarProvider.
type ScholarOption func(*ScholarProvider)

// WithScholarBaseURL overrides the API endpoint, primarily for tests.
func WithScholarBaseURL(u string) ScholarOption {
	return func(p *ScholarProvider) { p.baseURL = u }
}

// WithScholarMaxResults caps the number of results requested per query.
func WithScholarMaxResults(n int) ScholarOption {
	return func(p *ScholarProvider) { p.maxResults = n }
}

// NewScholarProvider creates a Google Scholar search provider backed by SerpAPI.
func NewScholarProvider(apiKey string, opts ...ScholarOption) *ScholarProvider {
	p := &ScholarProvider{
		apiKey:     apiKey,
		baseURL:    scholarDefaultBaseURL,
		maxResults: 3,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name identifies the provider in evidence snippets and metrics.
func (p *ScholarProvider) Name() string { return "scholar" }

type scholarResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search executes the query against Google Scholar and returns normalised results.
func (p *ScholarProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google_scholar")
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", p.maxResults))
	params.Set("api_key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scholar search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scholar search: unexpected status %d", resp.StatusCode)
	}

	var parsed scholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]ports.SearchResult, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		results = append(results, ports.SearchResult{
			Title:   r.Title,
			URL:     r.Link,
			Content: r.Snippet,
		})
	}
	return results, nil
}
