package predictor

import (
	"math"

	"github.com/sawpanic/asxscreen/internal/domain"
)

// closes extracts closing prices, oldest first.
func closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func sma(values []float64, period int) float64 {
	if len(values) < period || period == 0 {
		return 0
	}
	window := values[len(values)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(period)
}

func ema(values []float64, period int) []float64 {
	if len(values) == 0 || period == 0 {
		return nil
	}
	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// rsi14 is the classic Wilder RSI over the trailing 14 periods.
func rsi14(values []float64) float64 {
	const period = 14
	if len(values) < period+1 {
		return 50
	}
	window := values[len(values)-period-1:]
	var gainSum, lossSum float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}
	avgGain := gainSum / period
	avgLoss := lossSum / period
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// macdResult is the MACD(12,26,9) triple.
type macdResult struct {
	Line      float64
	Signal    float64
	Histogram float64
}

func macd(values []float64) macdResult {
	if len(values) < 35 {
		return macdResult{}
	}
	ema12 := ema(values, 12)
	ema26 := ema(values, 26)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = ema12[i] - ema26[i]
	}
	signal := ema(macdLine, 9)
	last := len(values) - 1
	return macdResult{
		Line:      macdLine[last],
		Signal:    signal[last],
		Histogram: macdLine[last] - signal[last],
	}
}

// bollinger20 returns the 20-period, 2-sigma bands and the %B of the
// latest close within them.
type bollingerResult struct {
	Upper, Middle, Lower, PercentB float64
}

func bollinger20(values []float64) bollingerResult {
	const period = 20
	if len(values) < period {
		return bollingerResult{}
	}
	window := values[len(values)-period:]
	mid := sma(values, period)
	var sumSq float64
	for _, v := range window {
		sumSq += (v - mid) * (v - mid)
	}
	stdev := math.Sqrt(sumSq / float64(period))
	upper := mid + 2*stdev
	lower := mid - 2*stdev
	last := values[len(values)-1]
	var percentB float64
	if upper != lower {
		percentB = (last - lower) / (upper - lower)
	}
	return bollingerResult{Upper: upper, Middle: mid, Lower: lower, PercentB: percentB}
}

// stochastic14_3 returns %K (14-period) smoothed to %D over 3 periods.
type stochasticResult struct {
	K, D float64
}

func stochastic14_3(bars []domain.Bar) stochasticResult {
	const kPeriod, dPeriod = 14, 3
	if len(bars) < kPeriod+dPeriod {
		return stochasticResult{K: 50, D: 50}
	}
	kValues := make([]float64, 0, dPeriod)
	for offset := dPeriod - 1; offset >= 0; offset-- {
		window := bars[len(bars)-kPeriod-offset : len(bars)-offset]
		hi, lo := window[0].High, window[0].Low
		for _, b := range window {
			if b.High > hi {
				hi = b.High
			}
			if b.Low < lo {
				lo = b.Low
			}
		}
		last := window[len(window)-1].Close
		k := 50.0
		if hi != lo {
			k = (last - lo) / (hi - lo) * 100
		}
		kValues = append(kValues, k)
	}
	return stochasticResult{K: kValues[len(kValues)-1], D: sma(kValues, dPeriod)}
}

// atr14 is the Wilder average true range.
func atr14(bars []domain.Bar) float64 {
	const period = 14
	if len(bars) < period+1 {
		return 0
	}
	window := bars[len(bars)-period-1:]
	var trSum float64
	for i := 1; i < len(window); i++ {
		high, low, prevClose := window[i].High, window[i].Low, window[i-1].Close
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trSum += tr
	}
	return trSum / period
}

// adxResult is the Wilder average directional index alongside the two
// directional indicators it's derived from, so callers can vote on trend
// direction (+DI vs -DI) as well as trend strength (ADX).
type adxResult struct {
	ADX, PlusDI, MinusDI float64
}

// adx14 is the Wilder average directional index, a trend-strength
// reading independent of direction, plus the last +DI/-DI pair.
func adx14(bars []domain.Bar) adxResult {
	const period = 14
	if len(bars) < period*2 {
		return adxResult{}
	}
	window := bars[len(bars)-period*2:]

	var plusDM, minusDM, tr []float64
	for i := 1; i < len(window); i++ {
		upMove := window[i].High - window[i-1].High
		downMove := window[i-1].Low - window[i].Low
		switch {
		case upMove > downMove && upMove > 0:
			plusDM = append(plusDM, upMove)
			minusDM = append(minusDM, 0)
		case downMove > upMove && downMove > 0:
			plusDM = append(plusDM, 0)
			minusDM = append(minusDM, downMove)
		default:
			plusDM = append(plusDM, 0)
			minusDM = append(minusDM, 0)
		}
		high, low, prevClose := window[i].High, window[i].Low, window[i-1].Close
		tr = append(tr, math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose))))
	}

	smoothedTR := sum(tr[:period])
	smoothedPlusDM := sum(plusDM[:period])
	smoothedMinusDM := sum(minusDM[:period])

	var dxValues []float64
	var lastPlusDI, lastMinusDI float64
	for i := period; i < len(tr); i++ {
		smoothedTR = smoothedTR - smoothedTR/period + tr[i]
		smoothedPlusDM = smoothedPlusDM - smoothedPlusDM/period + plusDM[i]
		smoothedMinusDM = smoothedMinusDM - smoothedMinusDM/period + minusDM[i]

		if smoothedTR == 0 {
			continue
		}
		plusDI := 100 * smoothedPlusDM / smoothedTR
		minusDI := 100 * smoothedMinusDM / smoothedTR
		lastPlusDI, lastMinusDI = plusDI, minusDI
		if plusDI+minusDI == 0 {
			continue
		}
		dxValues = append(dxValues, 100*math.Abs(plusDI-minusDI)/(plusDI+minusDI))
	}
	if len(dxValues) == 0 {
		return adxResult{}
	}
	return adxResult{ADX: sma(dxValues, len(dxValues)), PlusDI: lastPlusDI, MinusDI: lastMinusDI}
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
