package ports

import "context"

// SearchResult is a single hit returned by a SearchProvider. Content holds
// whatever body text the provider surfaces; callers truncate it to their own
// limits before storing it as evidence.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchProvider defines the interface for external evidence search backends.
// Implementations wrap a concrete API (web search, academic indexes) and
// normalise its responses into SearchResults.
//
// A provider returning zero results with a nil error is a valid outcome and
// must not be treated as a failure.
type SearchProvider interface {
	// Name returns a short stable identifier for the provider, used to
	// label evidence snippets and metrics.
	Name() string

	// Search executes the query against the backend and returns normalised
	// results. Implementations should honour context cancellation and
	// surface transport errors rather than swallowing them.
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
