package marketdata

import (
	"context"
	"time"

	"github.com/sawpanic/asxscreen/internal/domain"
)

// Period and Interval enumerate the values recognized by GetHistory. Any
// other string is a caller error, not a provider error.
var (
	ValidPeriods   = map[string]bool{"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true, "1y": true, "2y": true}
	ValidIntervals = map[string]bool{"1m": true, "5m": true, "15m": true, "30m": true, "1h": true, "1d": true}
)

// ChartProvider is the narrow, OHLCV-only contract every market-data
// provider (primary or fallback) must satisfy. There is deliberately no
// metadata/quote method on this interface — see §4.1's key design
// decision: any such endpoint is HTML-scraped and bot-detected upstream,
// and adding one here would let a future caller reach it by accident.
type ChartProvider interface {
	// Name identifies the provider for metrics/logging.
	Name() string
	// FetchChart returns raw bars for symbol/period/interval. A block
	// signature (empty body, short latency, HTTP 200) or HTTP 429/5xx
	// must be surfaced as domain.ErrProviderBlocked so the adapter can
	// fail over; anything else is returned as-is.
	FetchChart(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error)
}

// CalendarProvider is the optional provider-side event calendar endpoint
// (§4.4 event source 2). It is OHLCV-adjacent: it never touches the
// blocked metadata/quote path. A provider that cannot offer this without
// hitting that path simply doesn't implement the interface.
type CalendarProvider interface {
	FetchCalendar(ctx context.Context, symbol string, lookahead time.Duration) ([]domain.EventInfo, error)
}
