// Package report implements ReportEmitter (§4.8): the HTML, full-CSV,
// and event-risk-CSV artifacts written once per run, all via temp-file +
// rename so a crash mid-write never leaves a corrupt report at its final
// path.
package report

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

type Emitter struct {
	runDir string
	log    zerolog.Logger
}

func New(runDir string, log zerolog.Logger) *Emitter {
	return &Emitter{runDir: runDir, log: log.With().Str("component", "report").Logger()}
}

// Emit writes all three §4.8 artifacts under runDir. reasonCounts feeds
// the "no candidates" explanation §8 property 9 requires.
func (e *Emitter) Emit(runDate time.Time, market domain.MarketSentiment, opportunities []domain.Opportunity, reasonCounts map[string]int) error {
	htmlPath := filepath.Join(e.runDir, "morning_report.html")
	if err := writeHTMLReport(htmlPath, runDate, market, opportunities, reasonCounts); err != nil {
		return err
	}
	e.log.Info().Str("path", htmlPath).Msg("wrote HTML report")

	csvPath := filepath.Join(e.runDir, "full_results.csv")
	if err := writeFullResultsCSV(csvPath, opportunities); err != nil {
		return err
	}
	e.log.Info().Str("path", csvPath).Int("rows", len(opportunities)).Msg("wrote full results CSV")

	eventRiskPath := filepath.Join(e.runDir, "event_risk_summary.csv")
	if err := writeEventRiskCSV(eventRiskPath, opportunities); err != nil {
		return err
	}
	e.log.Info().Str("path", eventRiskPath).Msg("wrote event risk summary CSV")

	return nil
}
