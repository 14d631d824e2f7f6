// Package eventguard implements EventRiskGuard (§4.4): for each candidate,
// decides whether an upcoming event warrants a confidence haircut or a
// forced sit-out, from the event calendar, news sentiment, and volatility.
package eventguard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/config"
	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/marketdata"
	"github.com/sawpanic/asxscreen/internal/sentiment"
)

// Guard assesses event risk for a symbol. It never fails the pipeline:
// every failure mode (no sentiment, no calendar entry, insufficient
// history) degrades to a well-defined default rather than an error.
type Guard struct {
	adapter   *marketdata.Adapter
	sentiment sentiment.Provider
	calendar  []domain.EventInfo // pre-loaded manual calendar, §4.4 source 1
	providerCal marketdata.CalendarProvider // optional §4.4 source 2
	cfg       config.EventGuardConfig
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

func New(adapter *marketdata.Adapter, sentimentProvider sentiment.Provider, calendar []domain.EventInfo,
	providerCal marketdata.CalendarProvider, cfg config.EventGuardConfig, loc *time.Location, log zerolog.Logger) *Guard {
	return &Guard{
		adapter: adapter, sentiment: sentimentProvider, calendar: calendar, providerCal: providerCal,
		cfg: cfg, loc: loc, log: log.With().Str("component", "eventguard").Logger(),
		now: func() time.Time { return time.Now().In(loc) },
	}
}

// Assess implements the §4.4 public contract.
func (g *Guard) Assess(ctx context.Context, symbol string) domain.GuardResult {
	ev, found := g.nearestEvent(ctx, symbol)

	sentimentResult, avgSentiment := g.sentiment72h(ctx, symbol)
	volSpike := g.volatilitySpike(ctx, symbol)

	riskScore := 0.0
	if found {
		riskScore += 0.45
		if ev.EventType == domain.EventEarnings || ev.EventType == domain.EventBaselIII || ev.EventType == domain.EventRegulatory {
			riskScore += 0.20
		}
	}
	if avgSentiment != nil && *avgSentiment < g.cfg.NegSentimentThresh {
		riskScore += 0.25
	}
	if volSpike {
		riskScore += 0.15
	}
	riskScore = domain.Clamp(riskScore, 0, 1)

	haircut, forcedSkipByScore := haircutFor(riskScore, g.cfg.HaircutMax)

	var daysToEvent *int
	skipTrading := forcedSkipByScore
	if found {
		days := daysBetween(g.now(), ev.Date)
		daysToEvent = &days

		switch ev.EventType {
		case domain.EventEarnings:
			if absInt(days) <= g.cfg.EarningsBufferDays {
				skipTrading = true
			}
		case domain.EventDividend:
			if absInt(days) <= g.cfg.DividendBufferDays {
				skipTrading = true
			}
		case domain.EventBaselIII, domain.EventRegulatory:
			if riskScore >= 0.80 {
				skipTrading = true
			}
		}
	}

	if skipTrading && haircut < 0.70 {
		haircut = 0.70
	}

	result := domain.GuardResult{
		HasUpcomingEvent: found,
		DaysToEvent:      daysToEvent,
		AvgSentiment72h:  avgSentiment,
		VolSpike:         volSpike,
		RiskScore:        riskScore,
		WeightHaircut:    haircut,
		SkipTrading:      skipTrading,
	}
	if found {
		result.EventType = ev.EventType
	}
	result.SuggestedHedgeBeta = g.rollingBeta(ctx, symbol)
	result.WarningMessage = warningMessage(found, ev, daysToEvent, riskScore)

	_ = sentimentResult // kept for future article-level reporting; see ReportEmitter
	return result
}

// nearestEvent merges the manual calendar and (if present) the provider
// calendar, keeping the earliest event per (symbol, type) inside the
// lookahead window, per §4.4.
func (g *Guard) nearestEvent(ctx context.Context, symbol string) (domain.EventInfo, bool) {
	lookahead := time.Duration(g.cfg.LookaheadDays) * 24 * time.Hour
	now := g.now()
	cutoff := now.Add(lookahead)

	var candidates []domain.EventInfo
	for _, ev := range g.calendar {
		if ev.Symbol == symbol && !ev.Date.Before(now.Add(-24*time.Hour)) && !ev.Date.After(cutoff) {
			candidates = append(candidates, ev)
		}
	}

	if g.providerCal != nil {
		if provEvents, err := g.providerCal.FetchCalendar(ctx, symbol, lookahead); err == nil {
			candidates = append(candidates, provEvents...)
		} else {
			g.log.Debug().Err(err).Str("symbol", symbol).Msg("provider calendar unavailable, using manual calendar only")
		}
	}

	if len(candidates) == 0 {
		return domain.EventInfo{}, false
	}

	// Earliest per (symbol, type) wins; since all candidates here already
	// share the symbol, pick the single earliest across all types — a
	// candidate can only carry one "nearest" event per the GuardResult
	// shape.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Date.Before(candidates[j].Date) })
	return candidates[0], true
}

func haircutFor(riskScore, haircutMax float64) (haircut float64, skip bool) {
	switch {
	case riskScore >= 0.80:
		h := 0.70
		if h > haircutMax {
			h = haircutMax
		}
		return h, true
	case riskScore >= 0.50:
		return clampToMax(0.45, haircutMax), false
	case riskScore >= 0.25:
		return clampToMax(0.20, haircutMax), false
	default:
		return 0, false
	}
}

func clampToMax(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func (g *Guard) sentiment72h(ctx context.Context, symbol string) (sentiment.Result, *float64) {
	result, err := g.sentiment.GetSentiment(ctx, symbol, 3)
	if err != nil || result.Disabled() {
		return sentiment.Result{}, nil
	}
	v := result.Compound
	return result, &v
}

// volatilitySpike compares 10-day to 30-day realized volatility.
func (g *Guard) volatilitySpike(ctx context.Context, symbol string) bool {
	series, err := g.adapter.GetHistory(ctx, symbol, "3mo", "1d")
	if err != nil || len(series.Bars) < 31 {
		return false
	}
	vol10 := stdevReturns(series.Bars, 10)
	vol30 := stdevReturns(series.Bars, 30)
	if vol30 == 0 {
		return false
	}
	mult := g.cfg.VolSpikeMultiplier
	if mult <= 0 {
		mult = 1.35
	}
	return vol10 > mult*vol30
}

// rollingBeta computes a 60-day beta vs the ASX 200 index from OHLCV
// correlation; returns nil if insufficient history (§4.4 hedge guidance).
func (g *Guard) rollingBeta(ctx context.Context, symbol string) *float64 {
	symSeries, err := g.adapter.GetHistory(ctx, symbol, "6mo", "1d")
	if err != nil || len(symSeries.Bars) < 61 {
		return nil
	}
	idxSeries, err := g.adapter.GetHistory(ctx, "^AXJO", "6mo", "1d")
	if err != nil || len(idxSeries.Bars) < 61 {
		return nil
	}

	symReturns := returns(lastN(symSeries.Bars, 61))
	idxReturns := returns(lastN(idxSeries.Bars, 61))
	n := minInt(len(symReturns), len(idxReturns))
	if n < 10 {
		return nil
	}
	symReturns, idxReturns = symReturns[len(symReturns)-n:], idxReturns[len(idxReturns)-n:]

	beta := covariance(symReturns, idxReturns) / variance(idxReturns)
	if beta == 0 {
		return nil
	}
	return &beta
}

func warningMessage(found bool, ev domain.EventInfo, daysToEvent *int, riskScore float64) string {
	if !found {
		return ""
	}
	severity := "low"
	switch {
	case riskScore >= 0.80:
		severity = "severe"
	case riskScore >= 0.50:
		severity = "elevated"
	case riskScore >= 0.25:
		severity = "moderate"
	}
	days := 0
	if daysToEvent != nil {
		days = *daysToEvent
	}
	return fmt.Sprintf("%s event in %d day(s) — %s risk (score %.2f)", ev.EventType, days, severity, riskScore)
}

func daysBetween(now, event time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	eventDay := time.Date(event.Year(), event.Month(), event.Day(), 0, 0, 0, 0, now.Location())
	return int(eventDay.Sub(nowDay).Hours() / 24)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func lastN(bars []domain.Bar, n int) []domain.Bar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

func returns(bars []domain.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close == 0 {
			continue
		}
		out = append(out, (bars[i].Close-bars[i-1].Close)/bars[i-1].Close)
	}
	return out
}

func stdevReturns(bars []domain.Bar, period int) float64 {
	window := lastN(bars, period+1)
	rs := returns(window)
	if len(rs) < 2 {
		return 0
	}
	return stdev(rs)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func stdev(xs []float64) float64 {
	m := mean(xs)
	var s float64
	for _, x := range xs {
		s += (x - m) * (x - m)
	}
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(s / float64(len(xs)-1))
}

func variance(xs []float64) float64 {
	m := mean(xs)
	var s float64
	for _, x := range xs {
		s += (x - m) * (x - m)
	}
	if len(xs) == 0 {
		return 0
	}
	return s / float64(len(xs))
}

func covariance(a, b []float64) float64 {
	n := minInt(len(a), len(b))
	if n == 0 {
		return 0
	}
	a, b = a[:n], b[:n]
	ma, mb := mean(a), mean(b)
	var s float64
	for i := 0; i < n; i++ {
		s += (a[i] - ma) * (b[i] - mb)
	}
	return s / float64(n)
}
