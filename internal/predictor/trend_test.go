package predictor

import (
	"testing"
	"time"

	"github.com/sawpanic/asxscreen/internal/domain"
)

func trendBars(n int, start, step float64) []domain.Bar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		bars[i] = domain.Bar{Ts: base.AddDate(0, 0, i), Close: c, High: c + 1, Low: c - 1}
	}
	return bars
}

func TestTrendModelInsufficientBarsHolds(t *testing.T) {
	m := newTrendModel()
	dir, conf := m.predict(make([]domain.Bar, 5))
	if dir != domain.DirectionHold || conf != 0 {
		t.Errorf("predict with too few bars = (%v,%v), want (HOLD,0)", dir, conf)
	}
}

func TestTrendModelUptrendVotesBuy(t *testing.T) {
	m := newTrendModel()
	dir, conf := m.predict(trendBars(40, 10, 0.3))
	if dir != domain.DirectionBuy {
		t.Errorf("predict of a steady uptrend = %v, want BUY", dir)
	}
	if conf <= 0 {
		t.Errorf("confidence = %v, want > 0", conf)
	}
}

func TestHigherHighsLowerLowsDetectsUpStructure(t *testing.T) {
	bars := trendBars(20, 10, 0.5)
	if got := higherHighsLowerLows(bars, 20); got != 1 {
		t.Errorf("higherHighsLowerLows of rising bars = %d, want 1", got)
	}
}

func TestSMASlopeZeroOnInsufficientData(t *testing.T) {
	if got := smaSlope([]float64{1, 2, 3}, 20); got != 0 {
		t.Errorf("smaSlope with too few values = %v, want 0", got)
	}
}
