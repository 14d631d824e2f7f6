// Package predictor implements BatchPredictor (§4.5): a 4-model ensemble
// producing one Prediction per candidate. The predictor reads
// EventRiskGuard's result as plain data only — it never calls the guard
// directly (§9).
package predictor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/config"
	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/marketdata"
	"github.com/sawpanic/asxscreen/internal/sentiment"
)

type Predictor struct {
	adapter   *marketdata.Adapter
	technical *technicalModel
	trend     *trendModel
	lstm      *lstmModel
	sentiment *sentimentModel
	weights   config.EnsembleWeights
	log       zerolog.Logger
}

// New builds a Predictor. lstmSidecarPath may be empty, in which case the
// LSTM model never fires and its weight is always renormalized away.
func New(adapter *marketdata.Adapter, sentimentProvider sentiment.Provider, weights config.EnsembleWeights,
	lstmSidecarPath string, log zerolog.Logger) *Predictor {
	return &Predictor{
		adapter:   adapter,
		technical: newTechnicalModel(),
		trend:     newTrendModel(),
		lstm:      newLSTMModel(lstmSidecarPath, log),
		sentiment: newSentimentModel(sentimentProvider),
		weights:   weights,
		log:       log.With().Str("component", "predictor").Logger(),
	}
}

// vote is one model's raw output before weight renormalization.
type vote struct {
	model      domain.ModelName
	direction  domain.Direction
	confidence float64
	baseWeight float64
	fired      bool
}

// Predict runs the ensemble for one candidate, given its already-computed
// EventRiskGuard result.
func (p *Predictor) Predict(ctx context.Context, c domain.Candidate, guard domain.GuardResult) domain.Prediction {
	series, err := p.adapter.GetHistory(ctx, c.Symbol, "6mo", "1d")
	var bars []domain.Bar
	if err == nil {
		bars = series.Bars
	} else {
		p.log.Warn().Err(err).Str("symbol", c.Symbol).Msg("no OHLCV for prediction, technical/trend models disabled")
	}

	votes := p.collectVotes(ctx, c.Symbol, bars)
	contributions, rawConfidence, direction := combine(votes)

	if guard.SkipTrading {
		direction = domain.DirectionHold
	}

	volumeAdj := volumeAdjustment(c, bars)
	rawConfidencePct := rawConfidence * 100
	eventAdj := -guard.WeightHaircut * rawConfidencePct
	finalConfidence := domain.Clamp(rawConfidencePct+volumeAdj+eventAdj, 50, 95)

	expectedChange := expectedChangeFromLSTM(votes)

	return domain.Prediction{
		Symbol:            c.Symbol,
		Direction:         direction,
		Confidence:        finalConfidence,
		ExpectedChangePct: expectedChange,
		Contributions:     contributions,
		VolumeAdjustment:  volumeAdj,
		EventAdjustment:   eventAdj,
		RawConfidence:     rawConfidencePct,
		FinalConfidence:   finalConfidence,
	}
}

func (p *Predictor) collectVotes(ctx context.Context, symbol string, bars []domain.Bar) []vote {
	votes := make([]vote, 0, 4)

	if lstmDir, lstmConf, fired := p.lstm.predict(symbol); fired {
		votes = append(votes, vote{model: domain.ModelLSTM, direction: lstmDir, confidence: lstmConf, baseWeight: p.weights.LSTM, fired: true})
	} else {
		votes = append(votes, vote{model: domain.ModelLSTM, baseWeight: p.weights.LSTM, fired: false})
	}

	if len(bars) >= 30 {
		trendDir, trendConf := p.trend.predict(bars)
		votes = append(votes, vote{model: domain.ModelTrend, direction: trendDir, confidence: trendConf, baseWeight: p.weights.Trend, fired: true})
	} else {
		votes = append(votes, vote{model: domain.ModelTrend, baseWeight: p.weights.Trend, fired: false})
	}

	if len(bars) >= 35 {
		techDir, techConf := p.technical.predict(bars)
		votes = append(votes, vote{model: domain.ModelTechnical, direction: techDir, confidence: techConf, baseWeight: p.weights.Technical, fired: true})
	} else {
		votes = append(votes, vote{model: domain.ModelTechnical, baseWeight: p.weights.Technical, fired: false})
	}

	if sentDir, sentConf, fired := p.sentiment.predict(ctx, symbol); fired {
		votes = append(votes, vote{model: domain.ModelSentiment, direction: sentDir, confidence: sentConf, baseWeight: p.weights.Sentiment, fired: true})
	} else {
		votes = append(votes, vote{model: domain.ModelSentiment, baseWeight: p.weights.Sentiment, fired: false})
	}

	return votes
}

// combine renormalizes weights across fired models (§4.5 ModelMissing),
// takes the weighted-majority direction with a BUY>SELL>HOLD tiebreak,
// and returns the weighted-mean confidence of the firing models.
func combine(votes []vote) ([]domain.ModelContribution, float64, domain.Direction) {
	var firedWeightSum float64
	for _, v := range votes {
		if v.fired {
			firedWeightSum += v.baseWeight
		}
	}

	contributions := make([]domain.ModelContribution, 0, len(votes))
	buyWeight, sellWeight, holdWeight := 0.0, 0.0, 0.0
	var weightedConfidence float64

	for _, v := range votes {
		renormalized := 0.0
		if v.fired && firedWeightSum > 0 {
			renormalized = v.baseWeight / firedWeightSum
		}
		contributions = append(contributions, domain.ModelContribution{
			Model: v.model, Direction: v.direction, Confidence: v.confidence, Weight: renormalized, Fired: v.fired,
		})
		if !v.fired {
			continue
		}
		weightedConfidence += v.confidence * renormalized
		switch v.direction {
		case domain.DirectionBuy:
			buyWeight += renormalized
		case domain.DirectionSell:
			sellWeight += renormalized
		default:
			holdWeight += renormalized
		}
	}

	direction := domain.DirectionHold
	switch {
	case firedWeightSum == 0:
		direction = domain.DirectionHold
	case buyWeight >= sellWeight && buyWeight >= holdWeight:
		direction = domain.DirectionBuy
	case sellWeight >= holdWeight:
		direction = domain.DirectionSell
	}

	return contributions, weightedConfidence, direction
}

// volumeAdjustment rewards above-average volume and penalizes
// below-average volume on the latest session (§4.5).
func volumeAdjustment(c domain.Candidate, bars []domain.Bar) float64 {
	if len(bars) == 0 || c.AvgVolume == 0 {
		return 0
	}
	latestVolume := bars[len(bars)-1].Volume
	ratio := float64(latestVolume) / float64(c.AvgVolume)
	switch {
	case ratio > 1.5:
		return 10
	case ratio < 0.5:
		return -15
	default:
		return 0
	}
}

func expectedChangeFromLSTM(votes []vote) float64 {
	for _, v := range votes {
		if v.model == domain.ModelLSTM && v.fired {
			// Expected-change magnitude tracks the model's confidence
			// away from 50/50, scaled to a plausible overnight-gap range.
			return (v.confidence - 0.5) * 6
		}
	}
	return 0
}
