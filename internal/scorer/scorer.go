// Package scorer implements OpportunityScorer (§4.7): the composite
// ranking and rating assignment applied to every predicted candidate.
package scorer

import (
	"sort"

	"github.com/sawpanic/asxscreen/internal/domain"
)

type Scorer struct{}

func New() *Scorer { return &Scorer{} }

// Rank scores every candidate/prediction/guard triple and returns them
// ordered best-first, with ties broken by final_confidence and then by
// sector diversification against the top 10 built so far.
func (s *Scorer) Rank(candidates []domain.Candidate, predictions map[string]domain.Prediction, guards map[string]domain.GuardResult, market domain.MarketSentiment) []domain.Opportunity {
	opportunities := make([]domain.Opportunity, 0, len(candidates))
	for _, c := range candidates {
		pred, ok := predictions[c.Symbol]
		if !ok {
			continue
		}
		guard := guards[c.Symbol]
		score := compositeScore(c, pred, guard, market)
		opportunities = append(opportunities, domain.Opportunity{
			Candidate:  c,
			Prediction: pred,
			Guard:      guard,
			Score:      score,
			Rating:     domain.RatingForScore(score),
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		a, b := opportunities[i], opportunities[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Prediction.FinalConfidence != b.Prediction.FinalConfidence {
			return a.Prediction.FinalConfidence > b.Prediction.FinalConfidence
		}
		return false
	})

	diversifySectorTies(opportunities)
	return opportunities
}

// compositeScore implements the §4.7 five-term sum.
func compositeScore(c domain.Candidate, p domain.Prediction, g domain.GuardResult, market domain.MarketSentiment) float64 {
	confidenceTerm := p.FinalConfidence * 0.25

	var signalTerm float64
	switch p.Direction {
	case domain.DirectionBuy:
		signalTerm = 25
		if p.FinalConfidence >= 80 {
			signalTerm += 5
		}
	case domain.DirectionHold:
		signalTerm = 10
	case domain.DirectionSell:
		signalTerm = 0
	}

	technicalTerm := technicalConsensusTerm(c, p)

	sentimentTerm := 0.0
	if g.AvgSentiment72h != nil && *g.AvgSentiment72h > 0 {
		sentimentTerm = *g.AvgSentiment72h * 15
	}

	alignmentTerm := marketAlignmentTerm(p.Direction, market.GapDirection, c.Beta)

	return domain.Clamp(confidenceTerm+signalTerm+technicalTerm+sentimentTerm+alignmentTerm, 0, 100)
}

// technicalConsensusTerm derives 0-20 (§4.7) from two halves: up to 10 for
// the technical model's consensus strength (its contribution confidence,
// already computed by BatchPredictor rather than recomputed here), and up
// to 10 for the candidate's price sitting above its SMA50.
func technicalConsensusTerm(c domain.Candidate, p domain.Prediction) float64 {
	var consensusHalf float64
	for _, contrib := range p.Contributions {
		if contrib.Model != domain.ModelTechnical || !contrib.Fired {
			continue
		}
		if contrib.Direction == domain.DirectionBuy {
			consensusHalf = domain.Clamp(contrib.Confidence*10, 0, 10)
		}
		break
	}

	var smaHalf float64
	if c.SMA50 > 0 && c.Price > c.SMA50 {
		smaHalf = 10
	}

	return consensusHalf + smaHalf
}

func marketAlignmentTerm(direction domain.Direction, gap domain.GapDirection, beta float64) float64 {
	agrees := (direction == domain.DirectionBuy && gap == domain.GapUp) ||
		(direction == domain.DirectionSell && gap == domain.GapDown)
	opposed := (direction == domain.DirectionBuy && gap == domain.GapDown) ||
		(direction == domain.DirectionSell && gap == domain.GapUp)

	switch {
	case agrees && beta > 1.0:
		return 15
	case agrees:
		return 10
	case opposed:
		return -5
	default:
		return 0
	}
}

// diversifySectorTies re-orders exact score/confidence ties within the
// top 10 so a sector not yet represented is preferred, per §4.7.
func diversifySectorTies(opportunities []domain.Opportunity) {
	seen := map[domain.Sector]bool{}
	limit := 10
	if limit > len(opportunities) {
		limit = len(opportunities)
	}
	for i := 0; i < limit; i++ {
		if !seen[opportunities[i].Candidate.Sector] {
			seen[opportunities[i].Candidate.Sector] = true
			continue
		}
		// Current slot is a repeat sector; look ahead among exact ties
		// for a fresh sector to swap forward.
		for j := i + 1; j < len(opportunities); j++ {
			if !isTie(opportunities[i], opportunities[j]) {
				break
			}
			if !seen[opportunities[j].Candidate.Sector] {
				opportunities[i], opportunities[j] = opportunities[j], opportunities[i]
				seen[opportunities[i].Candidate.Sector] = true
				break
			}
		}
	}
}

func isTie(a, b domain.Opportunity) bool {
	return a.Score == b.Score && a.Prediction.FinalConfidence == b.Prediction.FinalConfidence
}
