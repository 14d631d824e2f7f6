// Package sentiment defines the news-sentiment provider contract (§4.6)
// shared by EventRiskGuard and BatchPredictor. Per §9's design note, both
// callers read this provider as plain data — they never call each other —
// and the provider is cached once per symbol per run so the two-model
// consumption never doubles the cost of a sentiment fetch.
package sentiment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Article is one FinBERT-scored headline.
type Article struct {
	Title  string
	Source string
	Ts     time.Time
	Score  float64 // compound score in [-1,1] for this headline
}

// Result is the sentiment provider's response shape (§4.6). The contract
// is: never fabricate sentiment — on empty or error, ArticleCount is 0 and
// Compound is 0, and callers must treat sentiment as disabled.
type Result struct {
	Compound     float64
	Positive     float64
	Negative     float64
	Neutral      float64
	ArticleCount int
	Articles     []Article
}

// Disabled reports whether this result should be treated as "no news".
func (r Result) Disabled() bool { return r.ArticleCount == 0 }

// Provider fetches aggregated sentiment for a symbol over a trailing
// window. Implementations may be unavailable (network/model outage); in
// that case they return an empty Result and a non-nil error, and callers
// must fall back to the empty-result contract rather than propagate the
// error up the pipeline (§4.4/§4.5 failure semantics).
type Provider interface {
	GetSentiment(ctx context.Context, symbol string, windowDays int) (Result, error)
}

// CachedProvider wraps a Provider with a per-run, per-(symbol,window)
// memoization so EventRiskGuard and BatchPredictor share one fetch.
type CachedProvider struct {
	inner Provider

	mu    sync.Mutex
	cache map[string]Result
}

func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{inner: inner, cache: make(map[string]Result)}
}

func (c *CachedProvider) GetSentiment(ctx context.Context, symbol string, windowDays int) (Result, error) {
	key := cacheKey(symbol, windowDays)

	c.mu.Lock()
	if r, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	result, err := c.inner.GetSentiment(ctx, symbol, windowDays)
	if err != nil {
		// Never fabricate sentiment: an error becomes the empty-result
		// contract, and the empty result is itself cached so repeated
		// calls within the run don't re-hit a known-unavailable provider.
		result = Result{}
	}

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()

	return result, nil
}

func cacheKey(symbol string, windowDays int) string {
	return fmt.Sprintf("%s:%dd", symbol, windowDays)
}
