package predictor

import "github.com/sawpanic/asxscreen/internal/domain"

// trendModel reads SMA(20/50/200) slope, last-close-vs-SMA50 position,
// EMA(12/26) crossover, and higher-highs/lower-lows structure over the
// trailing 20 sessions (§4.5).
type trendModel struct{}

func newTrendModel() *trendModel { return &trendModel{} }

func (m *trendModel) predict(bars []domain.Bar) (domain.Direction, float64) {
	if len(bars) < 30 {
		return domain.DirectionHold, 0
	}
	vals := closes(bars)

	slope20 := smaSlope(vals, 20)
	slope50 := smaSlope(vals, 50)
	slope200 := smaSlope(vals, 200)
	lastVsSMA50 := vals[len(vals)-1] - sma(vals, 50)

	ema12 := ema(vals, 12)
	ema26 := ema(vals, 26)
	crossoverUp := ema12[len(ema12)-1] > ema26[len(ema26)-1]

	structureUp := higherHighsLowerLows(bars, 20)

	bullSignals, bearSignals := 0, 0
	voteSlope := func(slope float64) {
		if slope > 0 {
			bullSignals++
		} else if slope < 0 {
			bearSignals++
		}
	}
	voteSlope(slope20)
	voteSlope(slope50)
	voteSlope(slope200)
	if lastVsSMA50 > 0 {
		bullSignals++
	} else if lastVsSMA50 < 0 {
		bearSignals++
	}
	if crossoverUp {
		bullSignals++
	} else {
		bearSignals++
	}
	switch structureUp {
	case 1:
		bullSignals++
	case -1:
		bearSignals++
	}

	var direction domain.Direction
	switch {
	case bullSignals > bearSignals:
		direction = domain.DirectionBuy
	case bearSignals > bullSignals:
		direction = domain.DirectionSell
	default:
		direction = domain.DirectionHold
	}

	const totalSignals = 6
	agreement := float64(maxInt(bullSignals, bearSignals)) / totalSignals
	confidence := domain.Clamp(0.5+0.4*agreement, 0, 1)
	return direction, confidence
}

// smaSlope is the normalized difference between the current SMA and the
// SMA ten sessions ago, expressed as a fraction of price.
func smaSlope(vals []float64, period int) float64 {
	if len(vals) < period+10 {
		return 0
	}
	current := sma(vals, period)
	earlier := sma(vals[:len(vals)-10], period)
	if earlier == 0 {
		return 0
	}
	return (current - earlier) / earlier
}

// higherHighsLowerLows returns 1 if the last `lookback` sessions show a
// higher-highs/higher-lows structure, -1 for lower-highs/lower-lows, 0
// otherwise.
func higherHighsLowerLows(bars []domain.Bar, lookback int) int {
	if len(bars) < lookback {
		lookback = len(bars)
	}
	window := bars[len(bars)-lookback:]
	mid := len(window) / 2
	if mid == 0 {
		return 0
	}
	firstHalf, secondHalf := window[:mid], window[mid:]

	firstHigh, firstLow := extremes(firstHalf)
	secondHigh, secondLow := extremes(secondHalf)

	switch {
	case secondHigh > firstHigh && secondLow > firstLow:
		return 1
	case secondHigh < firstHigh && secondLow < firstLow:
		return -1
	default:
		return 0
	}
}

func extremes(bars []domain.Bar) (high, low float64) {
	high, low = bars[0].High, bars[0].Low
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
