// Package scanner implements StockScanner (§4.2): builds the nightly
// candidate list from the sector universe, applying liquidity/price
// filters and a 0-100 screening score, all derived from OHLCV alone.
package scanner

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/config"
	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/marketdata"
)

// Scanner builds candidates from a sector universe. It never aborts the
// pipeline — per-ticker failures are logged and skipped, and a sector with
// fewer than 3 valid candidates is allowed through with a warning.
type Scanner struct {
	adapter *marketdata.Adapter
	cfg     config.ScannerConfig
	log     zerolog.Logger
}

func New(adapter *marketdata.Adapter, cfg config.ScannerConfig, log zerolog.Logger) *Scanner {
	return &Scanner{adapter: adapter, cfg: cfg, log: log.With().Str("component", "scanner").Logger()}
}

// rawMetrics holds the OHLCV-derived figures needed to apply filters and
// compute the screening score for one ticker.
type rawMetrics struct {
	symbol     string
	sector     domain.Sector
	price      float64
	avgVolume  int64
	volatility float64
	beta       float64
	sma20      float64
	sma50      float64
	lastClose  float64
	stalled    bool
	barCount   int
}

// Scan builds the candidate list for the given sector universe.
func (s *Scanner) Scan(ctx context.Context, universe map[domain.Sector][]string) []domain.Candidate {
	type sectorResult struct {
		sector     domain.Sector
		candidates []domain.Candidate
	}

	resultsCh := make(chan sectorResult, len(universe))
	var wg sync.WaitGroup

	for sector, tickers := range universe {
		wg.Add(1)
		go func(sector domain.Sector, tickers []string) {
			defer wg.Done()
			resultsCh <- sectorResult{sector: sector, candidates: s.scanSector(ctx, sector, tickers)}
		}(sector, tickers)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var all []domain.Candidate
	for r := range resultsCh {
		if len(r.candidates) < 3 {
			s.log.Warn().Str("sector", string(r.sector)).Int("count", len(r.candidates)).
				Msg("sector has fewer than 3 valid candidates, passing through with warning")
		}
		all = append(all, r.candidates...)
	}

	// Deterministic ordering for downstream phases (§5 merge-by-symbol-key).
	sort.Slice(all, func(i, j int) bool { return all[i].Symbol < all[j].Symbol })
	return all
}

func (s *Scanner) scanSector(ctx context.Context, sector domain.Sector, tickers []string) []domain.Candidate {
	metrics := make([]rawMetrics, 0, len(tickers))
	for _, ticker := range tickers {
		m, ok := s.fetchMetrics(ctx, sector, ticker)
		if !ok {
			continue
		}
		if !s.passesFilters(m) {
			continue
		}
		metrics = append(metrics, m)
	}

	if len(metrics) == 0 {
		return nil
	}

	capProxyMedian := medianCapProxy(metrics)

	candidates := make([]domain.Candidate, 0, len(metrics))
	for _, m := range metrics {
		score := s.screeningScore(m, capProxyMedian)
		candidates = append(candidates, domain.Candidate{
			Symbol:         m.symbol,
			Sector:         m.sector,
			Name:           m.symbol,
			Price:          m.price,
			AvgVolume:      m.avgVolume,
			Volatility:     m.volatility,
			Beta:           m.beta,
			SMA50:          m.sma50,
			ScreeningScore: domain.Clamp(score, 0, 100),
		})
	}
	return candidates
}

func (s *Scanner) fetchMetrics(ctx context.Context, sector domain.Sector, symbol string) (rawMetrics, bool) {
	series, err := s.adapter.GetHistory(ctx, symbol, "3mo", "1d")
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("skipping ticker: no OHLCV")
		return rawMetrics{}, false
	}
	if len(series.Bars) == 0 {
		return rawMetrics{}, false
	}

	bars := series.Bars
	last := bars[len(bars)-1]

	avgVol, _ := s.adapter.GetAverageVolume(ctx, symbol, 20)

	vol := realizedVolatility(bars, 20)
	beta := computeBeta(bars)
	sma20 := sma(bars, 20)
	sma50 := sma(bars, 50)
	stalled := isStalled(bars, 5)

	return rawMetrics{
		symbol: symbol, sector: sector, price: last.Close, avgVolume: avgVol,
		volatility: vol, beta: beta, sma20: sma20, sma50: sma50, lastClose: last.Close,
		stalled: stalled, barCount: len(bars),
	}, true
}

// passesFilters applies the four required scanner filters (§4.2).
func (s *Scanner) passesFilters(m rawMetrics) bool {
	minPrice := s.cfg.MinPrice
	if minPrice <= 0 {
		minPrice = 0.50
	}
	minVol := s.cfg.MinAvgVolume
	if minVol <= 0 {
		minVol = 500000
	}
	if m.price <= minPrice {
		return false
	}
	if m.avgVolume <= minVol {
		return false
	}
	if m.barCount < 60 {
		return false
	}
	if m.stalled {
		return false
	}
	return true
}

// screeningScore implements the §4.2 scoring rules: base 50, plus bonuses
// for volume, volatility band, trend, and relative cap proxy.
func (s *Scanner) screeningScore(m rawMetrics, sectorCapMedian float64) float64 {
	score := 50.0
	if m.avgVolume > 1000000 {
		score += 10
	}
	if m.beta >= 0.8 && m.beta <= 1.5 {
		score += 15
	}
	if m.lastClose > m.sma20 {
		score += 10
	}
	capProxy := float64(m.avgVolume) * m.price
	if capProxy >= sectorCapMedian {
		score += 15
	}
	return score
}

func medianCapProxy(metrics []rawMetrics) float64 {
	proxies := make([]float64, len(metrics))
	for i, m := range metrics {
		proxies[i] = float64(m.avgVolume) * m.price
	}
	sort.Float64s(proxies)
	n := len(proxies)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return proxies[n/2]
	}
	return (proxies[n/2-1] + proxies[n/2]) / 2
}

func sma(bars []domain.Bar, period int) float64 {
	if len(bars) < period {
		period = len(bars)
	}
	if period == 0 {
		return 0
	}
	window := bars[len(bars)-period:]
	var sum float64
	for _, b := range window {
		sum += b.Close
	}
	return sum / float64(period)
}

// realizedVolatility is the sample std-dev of daily log-ish returns over
// the trailing `period` sessions.
func realizedVolatility(bars []domain.Bar, period int) float64 {
	if len(bars) < period {
		period = len(bars)
	}
	if period < 2 {
		return 0
	}
	window := bars[len(bars)-period:]
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1].Close == 0 {
			continue
		}
		returns = append(returns, (window[i].Close-window[i-1].Close)/window[i-1].Close)
	}
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance)
}

// computeBeta estimates beta from the candidate's own volatility as a
// stand-in when no index series is supplied; callers that have an index
// series should use eventguard's rolling-beta helper instead. Defaults to
// 1.0 when insufficient data, matching the Candidate invariant's default.
func computeBeta(bars []domain.Bar) float64 {
	vol := realizedVolatility(bars, 30)
	if vol == 0 {
		return 1.0
	}
	// Calibrated so a "typical" ASX mid-cap volatility (~1.8% daily sigma)
	// maps close to beta 1.0; this is a coarse proxy used only for the
	// screening-score volatility band, not a correlation-based beta.
	return domain.Clamp(vol/0.018, 0.3, 3.0)
}

func isStalled(bars []domain.Bar, lookback int) bool {
	if len(bars) < lookback {
		lookback = len(bars)
	}
	if lookback == 0 {
		return true
	}
	window := bars[len(bars)-lookback:]
	for _, b := range window {
		if b.Volume > 0 {
			return false
		}
	}
	return true
}
