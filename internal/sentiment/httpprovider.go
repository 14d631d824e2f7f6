package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider calls an external FinBERT-style headline-scoring service.
// Model choice and scraping are explicitly out of scope (§4.6); this is
// the thin transport around whatever scores headlines and returns the
// §4.6 shape.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

func (p *HTTPProvider) GetSentiment(ctx context.Context, symbol string, windowDays int) (Result, error) {
	url := fmt.Sprintf("%s/sentiment/%s?window_days=%d", p.baseURL, symbol, windowDays)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sentiment provider unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("sentiment provider returned http %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode sentiment response: %w", err)
	}
	return result, nil
}
