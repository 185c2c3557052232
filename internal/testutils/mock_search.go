package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// MockSearchProvider is a scriptable SearchProvider. Results are keyed by
// query substring; unmatched queries return the Default results.
type MockSearchProvider struct {
	mu       sync.Mutex
	name     string
	byQuery  map[string][]ports.SearchResult
	Default  []ports.SearchResult
	Err      error
	queries  []string
}

// NewMockSearchProvider creates a provider reporting the given name.
func NewMockSearchProvider(name string) *MockSearchProvider {
	return &MockSearchProvider{
		name:    name,
		byQuery: make(map[string][]ports.SearchResult),
	}
}

// On registers results for queries containing the given substring.
func (m *MockSearchProvider) On(substring string, results ...ports.SearchResult) *MockSearchProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byQuery[substring] = results
	return m
}

// Queries returns every query the provider has seen, in call order.
func (m *MockSearchProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Name implements ports.SearchProvider.
func (m *MockSearchProvider) Name() string { return m.name }

// Search implements ports.SearchProvider.
func (m *MockSearchProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)

	if m.Err != nil {
		return nil, m.Err
	}
	for substring, results := range m.byQuery {
		if substring != "" && strings.Contains(query, substring) {
			return results, nil
		}
	}
	return m.Default, nil
}

var _ ports.SearchProvider = (*MockSearchProvider)(nil)

// MockRetriever is a PaperRetriever returning a fixed context string.
type MockRetriever struct {
	Result ports.RetrievalResult
	Err    error
}

// Query implements ports.PaperRetriever.
func (m *MockRetriever) Query(ctx context.Context, paper domain.Paper, question string) (ports.RetrievalResult, error) {
	if m.Err != nil {
		return ports.RetrievalResult{}, m.Err
	}
	return m.Result, nil
}

var _ ports.PaperRetriever = (*MockRetriever)(nil)
