package spimonitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/cache"
	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/marketdata"
)

type fakeChartProvider struct {
	name string
	bars map[string][]domain.Bar
}

func (f *fakeChartProvider) Name() string { return f.name }

func (f *fakeChartProvider) FetchChart(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error) {
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, domain.ErrNoData
	}
	return bars, nil
}

func risingBars(n int, start, step float64) []domain.Bar {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = domain.Bar{Ts: base.Add(time.Duration(i) * time.Hour), Close: start + step*float64(i)}
	}
	return bars
}

func testAdapter(bars map[string][]domain.Bar) *marketdata.Adapter {
	primary := &fakeChartProvider{name: "primary", bars: bars}
	cfg := marketdata.DefaultConfig()
	cfg.PrimaryDelaySeconds = 0.001
	cfg.IndexDelaySeconds = 0.001
	return marketdata.NewAdapter(primary, nil, nil, cfg, cache.New(), zerolog.Nop())
}

func TestAssessBullishWhenAllIndicesRise(t *testing.T) {
	bars := map[string][]domain.Bar{
		"SPI200": risingBars(12, 100, 1),
		"^GSPC":  risingBars(12, 100, 2),
		"^IXIC":  risingBars(12, 100, 2),
		"^DJI":   risingBars(12, 100, 1),
	}
	m := New(testAdapter(bars), zerolog.Nop())
	sentiment := m.Assess(context.Background())
	if sentiment.OverallSentiment != domain.SentimentBullish {
		t.Errorf("OverallSentiment = %v, want bullish", sentiment.OverallSentiment)
	}
	if sentiment.GapDirection != domain.GapUp {
		t.Errorf("GapDirection = %v, want up", sentiment.GapDirection)
	}
}

func TestAssessNeutralWhenAllIndicesFail(t *testing.T) {
	m := New(testAdapter(nil), zerolog.Nop())
	sentiment := m.Assess(context.Background())
	if sentiment.OverallSentiment != domain.SentimentNeutral {
		t.Errorf("OverallSentiment = %v, want neutral", sentiment.OverallSentiment)
	}
	if sentiment.SentimentScore != 50 {
		t.Errorf("SentimentScore = %v, want 50", sentiment.SentimentScore)
	}
	if sentiment.GapConfidence != domain.ConfidenceLow {
		t.Errorf("GapConfidence = %v, want low", sentiment.GapConfidence)
	}
}

func TestAssessFlatGapOnSmallMove(t *testing.T) {
	bars := map[string][]domain.Bar{
		"SPI200": risingBars(12, 100, 0.01),
	}
	m := New(testAdapter(bars), zerolog.Nop())
	sentiment := m.Assess(context.Background())
	if sentiment.GapDirection != domain.GapFlat {
		t.Errorf("GapDirection = %v, want flat for a tiny SPI move", sentiment.GapDirection)
	}
}
