package predictor

import "github.com/sawpanic/asxscreen/internal/domain"

// technicalModel derives a direction and confidence from a consensus of
// RSI14, MACD(12,26,9), Bollinger(20,2), Stochastic(14,3), ADX(14), and
// ATR(14), each voting BUY/SELL/HOLD; the ensemble confidence scales
// with how many of the six agree (§4.5).
type technicalModel struct{}

func newTechnicalModel() *technicalModel { return &technicalModel{} }

func (m *technicalModel) predict(bars []domain.Bar) (domain.Direction, float64) {
	if len(bars) < 35 {
		return domain.DirectionHold, 0
	}
	vals := closes(bars)

	rsi := rsi14(vals)
	md := macd(vals)
	bb := bollinger20(vals)
	st := stochastic14_3(bars)
	adx := adx14(bars)
	atr := atr14(bars)

	votes := []domain.Direction{
		voteRSI(rsi),
		voteMACD(md),
		voteBollinger(bb),
		voteStochastic(st),
		voteADX(adx),
		voteATR(bars, atr),
	}

	buy, sell, hold := 0, 0, 0
	for _, v := range votes {
		switch v {
		case domain.DirectionBuy:
			buy++
		case domain.DirectionSell:
			sell++
		default:
			hold++
		}
	}

	direction := majorityDirection(buy, sell, hold)
	agreement := float64(maxInt3(buy, sell, hold)) / float64(len(votes))

	return direction, domain.Clamp(agreement, 0, 1)
}

func voteRSI(rsi float64) domain.Direction {
	switch {
	case rsi < 30:
		return domain.DirectionBuy
	case rsi > 70:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

func voteMACD(m macdResult) domain.Direction {
	switch {
	case m.Histogram > 0:
		return domain.DirectionBuy
	case m.Histogram < 0:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

func voteBollinger(b bollingerResult) domain.Direction {
	switch {
	case b.PercentB < 0.05:
		return domain.DirectionBuy
	case b.PercentB > 0.95:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

func voteStochastic(s stochasticResult) domain.Direction {
	switch {
	case s.K < 20 && s.K > s.D:
		return domain.DirectionBuy
	case s.K > 80 && s.K < s.D:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

// voteADX reads trend direction off +DI/-DI, abstaining below ADX 20 where
// there's no trend to take a side on.
func voteADX(r adxResult) domain.Direction {
	if r.ADX < 20 {
		return domain.DirectionHold
	}
	switch {
	case r.PlusDI > r.MinusDI:
		return domain.DirectionBuy
	case r.MinusDI > r.PlusDI:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

// voteATR fires on a volatility breakout: a one-day move exceeding the
// ATR14 reading in either direction.
func voteATR(bars []domain.Bar, atr float64) domain.Direction {
	if len(bars) < 2 || atr == 0 {
		return domain.DirectionHold
	}
	move := bars[len(bars)-1].Close - bars[len(bars)-2].Close
	switch {
	case move > atr:
		return domain.DirectionBuy
	case move < -atr:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

// majorityDirection picks the plurality vote, breaking ties BUY > SELL >
// HOLD per §4.5's tiebreak rule.
func majorityDirection(buy, sell, hold int) domain.Direction {
	switch {
	case buy >= sell && buy >= hold:
		return domain.DirectionBuy
	case sell >= hold:
		return domain.DirectionSell
	default:
		return domain.DirectionHold
	}
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
