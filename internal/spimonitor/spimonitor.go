// Package spimonitor implements SPIMonitor (§4.3): produces the overnight
// MarketSentiment from SPI 200 futures and the major US indices.
package spimonitor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/marketdata"
)

// index symbols as recognized by the adapter (see marketdata.isIndexSymbol).
const (
	symSPI    = "SPI200"
	symSP500  = "^GSPC"
	symNasdaq = "^IXIC"
	symDow    = "^DJI"
)

type Monitor struct {
	adapter *marketdata.Adapter
	log     zerolog.Logger
}

func New(adapter *marketdata.Adapter, log zerolog.Logger) *Monitor {
	return &Monitor{adapter: adapter, log: log.With().Str("component", "spimonitor").Logger()}
}

// component holds one index's overnight change, or absence on fetch failure.
type component struct {
	name       string
	changePct  float64
	ok         bool
}

// Assess fetches the four overnight indices and derives MarketSentiment.
// Any index that fails to fetch is dropped from the aggregate; if all four
// fail, the result is neutral/50 with low gap confidence (§4.3 failure
// semantics).
func (m *Monitor) Assess(ctx context.Context) domain.MarketSentiment {
	spi := m.fetchChange(ctx, symSPI)
	sp500 := m.fetchChange(ctx, symSP500)
	nasdaq := m.fetchChange(ctx, symNasdaq)
	dow := m.fetchChange(ctx, symDow)

	components := []component{spi, sp500, nasdaq, dow}
	anyOK := false
	for _, c := range components {
		if c.ok {
			anyOK = true
			break
		}
	}

	if !anyOK {
		return domain.MarketSentiment{
			GapDirection:     domain.GapFlat,
			GapConfidence:    domain.ConfidenceLow,
			OverallSentiment: domain.SentimentNeutral,
			SentimentScore:   50,
		}
	}

	predictedGap := spi.changePct * 0.85
	var gapDir domain.GapDirection
	var gapConf domain.Confidence
	switch {
	case !spi.ok:
		gapDir, gapConf = domain.GapFlat, domain.ConfidenceLow
	case predictedGap > 0.30:
		gapDir, gapConf = domain.GapUp, domain.ConfidenceHigh
	case predictedGap < -0.30:
		gapDir, gapConf = domain.GapDown, domain.ConfidenceHigh
	default:
		gapDir = domain.GapFlat
		if absF(predictedGap) > 0.30 {
			gapConf = domain.ConfidenceHigh
		} else {
			gapConf = domain.ConfidenceMedium
		}
	}

	overall, score := overallSentiment(sp500, nasdaq, components)

	return domain.MarketSentiment{
		SPIChangePct:     spi.changePct,
		SP500ChangePct:   sp500.changePct,
		NasdaqChangePct:  nasdaq.changePct,
		DowChangePct:     dow.changePct,
		GapDirection:     gapDir,
		GapConfidence:    gapConf,
		OverallSentiment: overall,
		SentimentScore:   score,
	}
}

func overallSentiment(sp500, nasdaq component, components []component) (domain.OverallSentiment, float64) {
	var overall domain.OverallSentiment
	switch {
	case sp500.ok && nasdaq.ok && sp500.changePct > 0.5 && nasdaq.changePct > 0.5:
		overall = domain.SentimentBullish
	case sp500.ok && nasdaq.ok && sp500.changePct < -0.5 && nasdaq.changePct < -0.5:
		overall = domain.SentimentBearish
	default:
		overall = domain.SentimentNeutral
	}

	positive, negative := 0, 0
	for _, c := range components {
		if !c.ok {
			continue
		}
		switch {
		case c.changePct > 0:
			positive++
		case c.changePct < 0:
			negative++
		}
	}
	score := domain.Clamp(50+10*float64(positive-negative), 0, 100)
	return overall, score
}

// fetchChange compares the latest 5-day hourly close to the close ~10 bars
// earlier ("previous session"), per §4.3.
func (m *Monitor) fetchChange(ctx context.Context, symbol string) component {
	series, err := m.adapter.GetHistory(ctx, symbol, "5d", "1h")
	if err != nil {
		m.log.Warn().Err(err).Str("symbol", symbol).Msg("index fetch failed, dropping from sentiment aggregate")
		return component{name: symbol, ok: false}
	}
	bars := series.Bars
	if len(bars) < 11 {
		return component{name: symbol, ok: false}
	}
	latest := bars[len(bars)-1].Close
	prevIdx := len(bars) - 11
	previous := bars[prevIdx].Close
	if previous == 0 {
		return component{name: symbol, ok: false}
	}
	return component{name: symbol, changePct: (latest - previous) / previous * 100, ok: true}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
