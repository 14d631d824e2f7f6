package scanner

import (
	"testing"
	"time"

	"github.com/sawpanic/asxscreen/internal/domain"
)

func makeBars(closes []float64, volumes []int64) []domain.Bar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		vol := int64(1000)
		if i < len(volumes) {
			vol = volumes[i]
		}
		bars[i] = domain.Bar{Ts: base.AddDate(0, 0, i), Close: c, Volume: vol}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := makeBars([]float64{1, 2, 3, 4, 5}, nil)
	if got := sma(bars, 5); got != 3 {
		t.Errorf("sma = %v, want 3", got)
	}
	if got := sma(bars, 2); got != 4.5 {
		t.Errorf("sma(period=2) = %v, want 4.5", got)
	}
}

func TestIsStalledDetectsZeroVolume(t *testing.T) {
	bars := makeBars([]float64{1, 2, 3, 4, 5}, []int64{0, 0, 0, 0, 0})
	if !isStalled(bars, 5) {
		t.Error("expected stalled=true for all-zero volume window")
	}
	bars2 := makeBars([]float64{1, 2, 3, 4, 5}, []int64{0, 0, 0, 0, 100})
	if isStalled(bars2, 5) {
		t.Error("expected stalled=false when any bar in window has volume")
	}
}

func TestRealizedVolatilityZeroForFlatSeries(t *testing.T) {
	bars := makeBars([]float64{10, 10, 10, 10, 10}, nil)
	if got := realizedVolatility(bars, 5); got != 0 {
		t.Errorf("realizedVolatility of a flat series = %v, want 0", got)
	}
}

func TestMedianCapProxy(t *testing.T) {
	metrics := []rawMetrics{
		{avgVolume: 100, price: 1},
		{avgVolume: 200, price: 1},
		{avgVolume: 300, price: 1},
	}
	if got := medianCapProxy(metrics); got != 200 {
		t.Errorf("medianCapProxy = %v, want 200", got)
	}
}

func TestScreeningScoreBandsAddUp(t *testing.T) {
	s := &Scanner{}
	m := rawMetrics{avgVolume: 2000000, beta: 1.0, lastClose: 11, sma20: 10}
	score := s.screeningScore(m, 0)
	if score != 50+10+15+10+15 {
		t.Errorf("screeningScore = %v, want 100", score)
	}
}

func TestComputeBetaDefaultsToOneWhenFlat(t *testing.T) {
	bars := makeBars([]float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}, nil)
	if got := computeBeta(bars); got != 1.0 {
		t.Errorf("computeBeta of a flat series = %v, want 1.0", got)
	}
}
