package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/argus-eval/argus/internal/ports"
)

const arxivDefaultBaseURL = "http://export.arxiv.org/api"

// ArxivProvider queries the arXiv Atom API for academic preprints.
// arXiv needs no credentials but asks clients to keep request rates low, so
// callers should wrap this provider with the caching decorator.
type ArxivProvider struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// ArxivOption customises an ArxivProvider.
type ArxivOption func(*ArxivProvider)

// WithArxivBaseURL overrides the API endpoint, primarily for tests.
func WithArxivBaseURL(u string) ArxivOption {
	return func(p *ArxivProvider) { p.baseURL = u }
}

// WithArxivMaxResults caps the number of results requested per query.
func WithArxivMaxResults(n int) ArxivOption {
	return func(p *ArxivProvider) { p.maxResults = n }
}

// NewArxivProvider creates an arXiv-backed search provider.
func NewArxivProvider(opts ...ArxivOption) *ArxivProvider {
	p := &ArxivProvider{
		baseURL:    arxivDefaultBaseURL,
		maxResults: 3,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name identifies the provider in evidence snippets and metrics.
func (p *ArxivProvider) Name() string { return "arxiv" }

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

// Search executes the query against arXiv and returns normalised results.
func (p *ArxivProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", fmt.Sprintf("%d", p.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv search: unexpected status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	results := make([]ports.SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		results = append(results, ports.SearchResult{
			Title:   strings.TrimSpace(entry.Title),
			URL:     strings.TrimSpace(entry.ID),
			Content: strings.TrimSpace(entry.Summary),
		})
	}
	return results, nil
}
