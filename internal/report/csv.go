package report

import (
	"strconv"

	"github.com/sawpanic/asxscreen/internal/domain"
)

var fullResultsHeader = []string{
	"symbol", "sector", "name", "price", "avg_volume", "volatility", "beta", "screening_score",
	"direction", "confidence", "expected_change_pct", "raw_confidence", "final_confidence",
	"volume_adjustment", "event_adjustment",
	"lstm_direction", "lstm_confidence", "lstm_weight", "lstm_fired",
	"trend_direction", "trend_confidence", "trend_weight", "trend_fired",
	"technical_direction", "technical_confidence", "technical_weight", "technical_fired",
	"sentiment_direction", "sentiment_confidence", "sentiment_weight", "sentiment_fired",
	"has_upcoming_event", "days_to_event", "event_type", "avg_sentiment_72h", "vol_spike",
	"risk_score", "weight_haircut", "skip_trading", "suggested_hedge_beta", "warning_message",
	"score", "rating",
}

var eventRiskHeader = []string{"symbol", "event_type", "days_to_event", "risk_score", "skip_trading", "warning_message"}

// writeFullResultsCSV implements §4.8 artifact 2: one row per Candidate
// carrying every Prediction and GuardResult field (≥40 columns).
func writeFullResultsCSV(path string, opportunities []domain.Opportunity) error {
	rows := make([][]string, 0, len(opportunities)+1)
	rows = append(rows, fullResultsHeader)
	for _, o := range opportunities {
		rows = append(rows, opportunityRow(o))
	}
	return writeCSVAtomic(path, rows)
}

// writeEventRiskCSV implements §4.8 artifact 3.
func writeEventRiskCSV(path string, opportunities []domain.Opportunity) error {
	rows := make([][]string, 0, len(opportunities)+1)
	rows = append(rows, eventRiskHeader)
	for _, o := range opportunities {
		g := o.Guard
		rows = append(rows, []string{
			o.Candidate.Symbol,
			string(g.EventType),
			intPtrStr(g.DaysToEvent),
			f(g.RiskScore),
			strconv.FormatBool(g.SkipTrading),
			g.WarningMessage,
		})
	}
	return writeCSVAtomic(path, rows)
}

func opportunityRow(o domain.Opportunity) []string {
	c, p, g := o.Candidate, o.Prediction, o.Guard
	contrib := contributionsByModel(p.Contributions)

	row := []string{
		c.Symbol, string(c.Sector), c.Name, f(c.Price), i64(c.AvgVolume), f(c.Volatility), f(c.Beta), f(c.ScreeningScore),
		string(p.Direction), f(p.Confidence), f(p.ExpectedChangePct), f(p.RawConfidence), f(p.FinalConfidence),
		f(p.VolumeAdjustment), f(p.EventAdjustment),
	}
	for _, model := range []domain.ModelName{domain.ModelLSTM, domain.ModelTrend, domain.ModelTechnical, domain.ModelSentiment} {
		contribution := contrib[model]
		row = append(row, string(contribution.Direction), f(contribution.Confidence), f(contribution.Weight), strconv.FormatBool(contribution.Fired))
	}
	row = append(row,
		strconv.FormatBool(g.HasUpcomingEvent), intPtrStr(g.DaysToEvent), string(g.EventType), floatPtrStr(g.AvgSentiment72h),
		strconv.FormatBool(g.VolSpike), f(g.RiskScore), f(g.WeightHaircut), strconv.FormatBool(g.SkipTrading),
		floatPtrStr(g.SuggestedHedgeBeta), g.WarningMessage,
		f(o.Score), string(o.Rating),
	)
	return row
}

func contributionsByModel(contributions []domain.ModelContribution) map[domain.ModelName]domain.ModelContribution {
	out := make(map[domain.ModelName]domain.ModelContribution, len(contributions))
	for _, c := range contributions {
		out[c.Model] = c
	}
	return out
}

func f(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func i64(v int64) string { return strconv.FormatInt(v, 10) }

func intPtrStr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatPtrStr(v *float64) string {
	if v == nil {
		return ""
	}
	return f(*v)
}
