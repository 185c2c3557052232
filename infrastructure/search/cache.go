package search

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/argus-eval/argus/internal/ports"
)

// CachedProvider memoises the results of another SearchProvider in memory.
// Evidence searches within one evaluation frequently repeat (the same claim
// text reaches multiple backends, and review sub-queries overlap), so a short
// TTL saves both latency and API quota. Errors are never cached.
type CachedProvider struct {
	next  ports.SearchProvider
	cache *gocache.Cache
}

// NewCachedProvider wraps a provider with an in-memory TTL cache.
func NewCachedProvider(next ports.SearchProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Name reports the underlying provider's name.
func (p *CachedProvider) Name() string { return p.next.Name() }

// Search returns cached results for a repeated query, or delegates to the
// wrapped provider and stores the outcome.
func (p *CachedProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	key := p.next.Name() + "\x00" + query
	if cached, found := p.cache.Get(key); found {
		return cached.([]ports.SearchResult), nil
	}

	results, err := p.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, results, gocache.DefaultExpiration)
	return results, nil
}
