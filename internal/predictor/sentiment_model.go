package predictor

import (
	"context"

	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/sentiment"
)

// sentimentModel turns the shared sentiment.Provider's compound score
// into a direction/confidence vote (§4.5). It reads the same provider
// EventRiskGuard reads — §9's design note that both consumers treat the
// provider as plain data, never calling into each other.
type sentimentModel struct {
	provider sentiment.Provider
}

func newSentimentModel(provider sentiment.Provider) *sentimentModel {
	return &sentimentModel{provider: provider}
}

func (m *sentimentModel) predict(ctx context.Context, symbol string) (domain.Direction, float64, bool) {
	result, err := m.provider.GetSentiment(ctx, symbol, 3)
	if err != nil || result.Disabled() {
		return domain.DirectionHold, 0, false
	}

	cap := articleCountConfidenceCap(result.ArticleCount)
	switch {
	case result.Compound > 0.30:
		return domain.DirectionBuy, domain.Clamp(0.5+result.Compound/2, 0, cap), true
	case result.Compound < -0.30:
		return domain.DirectionSell, domain.Clamp(0.5+(-result.Compound)/2, 0, cap), true
	default:
		return domain.DirectionHold, domain.Clamp(0.5, 0, cap), true
	}
}

// articleCountConfidenceCap bounds sentiment confidence by how much news
// it's drawn from (§4.5): thin coverage caps confidence lower even when
// the compound score itself is strongly one-sided.
func articleCountConfidenceCap(count int) float64 {
	switch {
	case count >= 10:
		return 0.85
	case count >= 5:
		return 0.80
	default:
		return 0.75
	}
}
