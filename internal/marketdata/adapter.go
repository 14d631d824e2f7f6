package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	cachepkg "github.com/sawpanic/asxscreen/internal/cache"
	"github.com/sawpanic/asxscreen/internal/domain"
)

// Config holds adapter tuning knobs, mirroring the run.yaml `adapter.*`
// options from §6.
type Config struct {
	PrimaryDelaySeconds     float64
	IndexDelaySeconds       float64
	TimeoutSeconds          float64
	FallbackCoolingStreak   int
	MaxWorkers              int
	CacheTTL                time.Duration
}

func DefaultConfig() Config {
	return Config{
		PrimaryDelaySeconds:   0.5,
		IndexDelaySeconds:     1.0,
		TimeoutSeconds:        15,
		FallbackCoolingStreak: 3,
		MaxWorkers:            2,
		CacheTTL:              10 * time.Minute,
	}
}

// Adapter is the MarketDataAdapter of §4.1: the sole path by which every
// other component reaches OHLCV data. It owns the process-wide HTTP
// session (via its providers), the rate-limit semaphore, the circuit
// breaker, and the in-run cache. No other component may construct its own
// ChartProvider.
type Adapter struct {
	primary  ChartProvider
	fallback ChartProvider
	calendar CalendarProvider // optional, may be nil

	cache  cachepkg.Cache
	pacer  *pacer
	workers *workerSemaphore
	brk    *breaker

	cfg Config
	log zerolog.Logger

	reqCounter    *prometheus.CounterVec
	fallbackGauge prometheus.Gauge
}

func NewAdapter(primary, fallback ChartProvider, calendar CalendarProvider, cfg Config, cache cachepkg.Cache, log zerolog.Logger) *Adapter {
	return &Adapter{
		primary:  primary,
		fallback: fallback,
		calendar: calendar,
		cache:    cache,
		pacer:    newPacer(cfg.PrimaryDelaySeconds, cfg.IndexDelaySeconds),
		workers:  newWorkerSemaphore(cfg.MaxWorkers),
		brk:      newBreaker("primary-provider", cfg.FallbackCoolingStreak),
		cfg:      cfg,
		log:      log.With().Str("component", "marketdata").Logger(),
	}
}

// SetMetrics wires Prometheus collectors; optional.
func (a *Adapter) SetMetrics(reqCounter *prometheus.CounterVec, fallbackGauge prometheus.Gauge) {
	a.reqCounter = reqCounter
	a.fallbackGauge = fallbackGauge
}

func cacheKeyFor(symbol, period, interval string) string {
	return fmt.Sprintf("ohlcv:%s:%s:%s", symbol, period, interval)
}

// GetHistory returns OHLCV bars for symbol/period/interval, serving from
// the in-run cache when present, otherwise fetching through the primary
// provider with circuit-breaker and fallback protection.
func (a *Adapter) GetHistory(ctx context.Context, symbol, period, interval string) (*domain.OHLCVSeries, error) {
	if !ValidPeriods[period] {
		return nil, fmt.Errorf("%w: invalid period %q", domain.ErrConfig, period)
	}
	if !ValidIntervals[interval] {
		return nil, fmt.Errorf("%w: invalid interval %q", domain.ErrConfig, interval)
	}

	key := cacheKeyFor(symbol, period, interval)
	if raw, ok := a.cache.Get(key); ok {
		var series domain.OHLCVSeries
		if err := json.Unmarshal(raw, &series); err == nil {
			return &series, nil
		}
	}

	if err := a.workers.acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire worker: %w", err)
	}
	defer a.workers.release()

	isIndex := isIndexSymbol(symbol)
	if isIndex {
		if err := a.pacer.waitIndex(ctx); err != nil {
			return nil, err
		}
	} else {
		if err := a.pacer.waitSymbol(ctx); err != nil {
			return nil, err
		}
	}

	timeout := time.Duration(a.cfg.TimeoutSeconds) * time.Second
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bars, provider, err := a.fetchWithFailover(fetchCtx, symbol, period, interval)
	if err != nil {
		a.countReq(provider, "error")
		return nil, err
	}
	a.countReq(provider, "success")

	series := &domain.OHLCVSeries{Symbol: symbol, Period: period, Interval: interval, Bars: bars}
	if raw, err := json.Marshal(series); err == nil {
		a.cache.Set(key, raw, a.cfg.CacheTTL)
	}
	return series, nil
}

func (a *Adapter) fetchWithFailover(ctx context.Context, symbol, period, interval string) ([]domain.Bar, string, error) {
	if !a.brk.isCooling() {
		result, err := a.brk.Execute(func() (any, error) {
			return a.primary.FetchChart(ctx, symbol, period, interval)
		})
		if err == nil {
			a.brk.recordPrimarySuccess()
			return result.([]domain.Bar), a.primary.Name(), nil
		}
		a.log.Warn().Err(err).Str("symbol", symbol).Str("provider", a.primary.Name()).Msg("primary provider failed, trying fallback")
	}

	if a.fallback == nil {
		return nil, a.primary.Name(), domain.ErrNoData
	}

	fallbackTimeout := timeoutOrDefault(ctx, 20*time.Second)
	fbCtx, cancel := context.WithTimeout(ctx, fallbackTimeout)
	defer cancel()

	bars, err := a.fallback.FetchChart(fbCtx, symbol, period, interval)
	if err != nil {
		return nil, a.fallback.Name(), fmt.Errorf("%w: fallback also failed: %v", domain.ErrNoData, err)
	}
	a.brk.recordFallbackSuccess()
	if a.fallbackGauge != nil && a.brk.isCooling() {
		a.fallbackGauge.Set(1)
	}
	return bars, a.fallback.Name(), nil
}

func timeoutOrDefault(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining > 0 {
			return remaining
		}
	}
	return def
}

func (a *Adapter) countReq(provider, status string) {
	if a.reqCounter != nil {
		a.reqCounter.WithLabelValues(provider, status).Inc()
	}
}

// GetCloseOn returns the closing price on a given date, or domain.ErrNoData
// if no bar exists for that date.
func (a *Adapter) GetCloseOn(ctx context.Context, symbol string, date time.Time) (float64, error) {
	series, err := a.GetHistory(ctx, symbol, "1y", "1d")
	if err != nil {
		return 0, err
	}
	target := date.Format("2006-01-02")
	for _, b := range series.Bars {
		if b.Ts.Format("2006-01-02") == target {
			return b.Close, nil
		}
	}
	return 0, domain.ErrNoData
}

// GetAverageVolume computes the average daily volume over the trailing
// lookbackDays sessions (derived from OHLCV only, per §4.1).
func (a *Adapter) GetAverageVolume(ctx context.Context, symbol string, lookbackDays int) (int64, error) {
	series, err := a.GetHistory(ctx, symbol, "3mo", "1d")
	if err != nil {
		return 0, err
	}
	bars := lastNBars(series.Bars, lookbackDays)
	if len(bars) == 0 {
		return 0, domain.ErrNoData
	}
	var sum int64
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / int64(len(bars)), nil
}

func lastNBars(bars []domain.Bar, n int) []domain.Bar {
	sorted := make([]domain.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ts.Before(sorted[j].Ts) })
	if len(sorted) <= n {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

func isIndexSymbol(symbol string) bool {
	switch symbol {
	case "SPI200", "^AXJO", "^GSPC", "^IXIC", "^DJI":
		return true
	default:
		return false
	}
}
