package scorer

import (
	"testing"

	"github.com/sawpanic/asxscreen/internal/domain"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	candidates := []domain.Candidate{{Symbol: "A", Sector: domain.SectorFinancials}, {Symbol: "B", Sector: domain.SectorMaterials}}
	predictions := map[string]domain.Prediction{
		"A": {Symbol: "A", Direction: domain.DirectionBuy, FinalConfidence: 60},
		"B": {Symbol: "B", Direction: domain.DirectionBuy, FinalConfidence: 90},
	}
	guards := map[string]domain.GuardResult{}
	opps := New().Rank(candidates, predictions, guards, domain.MarketSentiment{})
	if len(opps) != 2 {
		t.Fatalf("len(opps) = %d, want 2", len(opps))
	}
	if opps[0].Score < opps[1].Score {
		t.Errorf("opportunities not sorted descending: %v before %v", opps[0].Score, opps[1].Score)
	}
	if opps[0].Candidate.Symbol != "B" {
		t.Errorf("expected higher-confidence candidate B to rank first, got %s", opps[0].Candidate.Symbol)
	}
}

func TestRankSkipsCandidatesMissingPredictions(t *testing.T) {
	candidates := []domain.Candidate{{Symbol: "A"}, {Symbol: "B"}}
	predictions := map[string]domain.Prediction{"A": {Symbol: "A", Direction: domain.DirectionBuy}}
	opps := New().Rank(candidates, predictions, map[string]domain.GuardResult{}, domain.MarketSentiment{})
	if len(opps) != 1 {
		t.Fatalf("len(opps) = %d, want 1 (B has no prediction)", len(opps))
	}
}

func TestCompositeScoreRewardsBuyAboveSell(t *testing.T) {
	c := domain.Candidate{Beta: 1.0}
	buyPred := domain.Prediction{Direction: domain.DirectionBuy, FinalConfidence: 70}
	sellPred := domain.Prediction{Direction: domain.DirectionSell, FinalConfidence: 70}
	market := domain.MarketSentiment{GapDirection: domain.GapFlat}
	if compositeScore(c, buyPred, domain.GuardResult{}, market) <= compositeScore(c, sellPred, domain.GuardResult{}, market) {
		t.Error("a BUY signal should score higher than an otherwise-identical SELL signal")
	}
}

func TestMarketAlignmentTermAgreementWithHighBeta(t *testing.T) {
	if got := marketAlignmentTerm(domain.DirectionBuy, domain.GapUp, 1.5); got != 15 {
		t.Errorf("marketAlignmentTerm(buy,up,beta>1) = %v, want 15", got)
	}
	if got := marketAlignmentTerm(domain.DirectionBuy, domain.GapUp, 0.5); got != 10 {
		t.Errorf("marketAlignmentTerm(buy,up,beta<1) = %v, want 10", got)
	}
	if got := marketAlignmentTerm(domain.DirectionBuy, domain.GapDown, 1.0); got != -5 {
		t.Errorf("marketAlignmentTerm(buy,down) = %v, want -5", got)
	}
}

func TestTechnicalConsensusTermZeroWhenTechnicalSellsOrAbsent(t *testing.T) {
	p := domain.Prediction{Contributions: []domain.ModelContribution{
		{Model: domain.ModelTechnical, Fired: true, Direction: domain.DirectionSell, Confidence: 0.9},
	}}
	if got := technicalConsensusTerm(domain.Candidate{}, p); got != 0 {
		t.Errorf("technicalConsensusTerm with SELL technical vote and no SMA50 edge = %v, want 0", got)
	}
	if got := technicalConsensusTerm(domain.Candidate{}, domain.Prediction{}); got != 0 {
		t.Errorf("technicalConsensusTerm with no contributions and no SMA50 edge = %v, want 0", got)
	}
}

func TestTechnicalConsensusTermCombinesConsensusAndSMA50(t *testing.T) {
	p := domain.Prediction{Contributions: []domain.ModelContribution{
		{Model: domain.ModelTechnical, Fired: true, Direction: domain.DirectionBuy, Confidence: 0.8},
	}}
	c := domain.Candidate{Price: 11, SMA50: 10}
	if got := technicalConsensusTerm(c, p); got != 8+10 {
		t.Errorf("technicalConsensusTerm(price>SMA50, BUY consensus 0.8) = %v, want 18", got)
	}

	below := domain.Candidate{Price: 9, SMA50: 10}
	if got := technicalConsensusTerm(below, p); got != 8 {
		t.Errorf("technicalConsensusTerm(price<SMA50, BUY consensus 0.8) = %v, want 8", got)
	}
}

func TestDiversifySectorTiesSwapsRepeatedSector(t *testing.T) {
	opps := []domain.Opportunity{
		{Candidate: domain.Candidate{Symbol: "A", Sector: domain.SectorFinancials}, Score: 80, Prediction: domain.Prediction{FinalConfidence: 70}},
		{Candidate: domain.Candidate{Symbol: "B", Sector: domain.SectorFinancials}, Score: 80, Prediction: domain.Prediction{FinalConfidence: 70}},
		{Candidate: domain.Candidate{Symbol: "C", Sector: domain.SectorMaterials}, Score: 80, Prediction: domain.Prediction{FinalConfidence: 70}},
	}
	diversifySectorTies(opps)
	if opps[1].Candidate.Sector == opps[0].Candidate.Sector {
		t.Errorf("expected the second slot to diversify away from %v, got %+v", opps[0].Candidate.Sector, opps[1])
	}
}
