package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/report"
)

const eventRiskWorkers = 2

func (o *Orchestrator) runSPIPhase(ctx context.Context, log zerolog.Logger) (domain.MarketSentiment, error) {
	o.setPhase("spi_monitor", domain.PhaseRunning, nil, "")
	timer := o.startTimer("spi_monitor", log)
	market := o.deps.SPIMonitor.Assess(ctx)
	timer.Stop("ok")
	o.setPhase("spi_monitor", domain.PhaseComplete, map[string]int{"components": 1}, "")
	return market, nil
}

func (o *Orchestrator) runScanPhase(ctx context.Context, log zerolog.Logger) ([]domain.Candidate, error) {
	o.setPhase("scanner", domain.PhaseRunning, nil, "")
	start := time.Now()
	timer := o.startTimer("scanner", log)

	candidates := o.deps.Scanner.Scan(ctx, o.deps.Universe)

	timer.Stop("ok")
	warning := ""
	if time.Since(start) > scannerBudget {
		warning = "scanner exceeded its soft budget"
		log.Warn().Dur("elapsed", time.Since(start)).Msg(warning)
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.CandidatesOut.Set(float64(len(candidates)))
	}
	o.setPhase("scanner", domain.PhaseComplete, map[string]int{"candidates": len(candidates)}, warning)
	return candidates, nil
}

func (o *Orchestrator) runEventRiskPhase(ctx context.Context, log zerolog.Logger, candidates []domain.Candidate) map[string]domain.GuardResult {
	o.setPhase("event_risk", domain.PhaseRunning, nil, "")
	start := time.Now()
	timer := o.startTimer("event_risk", log)

	guards := make(map[string]domain.GuardResult, len(candidates))
	var mu sync.Mutex
	sem := make(chan struct{}, eventRiskWorkers)
	var wg sync.WaitGroup

	for _, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(c domain.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			g := o.deps.EventGuard.Assess(ctx, c.Symbol)
			mu.Lock()
			guards[c.Symbol] = g
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	timer.Stop("ok")
	warning := ""
	if time.Since(start) > eventRiskBudget {
		warning = "event risk assessment exceeded its soft budget"
		log.Warn().Dur("elapsed", time.Since(start)).Msg(warning)
	}
	skipCount := 0
	for _, g := range guards {
		if g.SkipTrading {
			skipCount++
		}
	}
	o.setPhase("event_risk", domain.PhaseComplete, map[string]int{"assessed": len(guards), "skip_trading": skipCount}, warning)
	return guards
}

func (o *Orchestrator) runPredictionPhase(ctx context.Context, log zerolog.Logger, candidates []domain.Candidate, guards map[string]domain.GuardResult) map[string]domain.Prediction {
	o.setPhase("prediction", domain.PhaseRunning, nil, "")
	start := time.Now()
	timer := o.startTimer("prediction", log)

	predictions := make(map[string]domain.Prediction, len(candidates))
	for _, c := range candidates {
		guard := guards[c.Symbol] // zero-value GuardResult if assessment was skipped by the hard cap
		predictions[c.Symbol] = o.deps.Predictor.Predict(ctx, c, guard)
	}

	timer.Stop("ok")
	warning := ""
	if time.Since(start) > predictionBudget {
		warning = "prediction exceeded its soft budget"
		log.Warn().Dur("elapsed", time.Since(start)).Msg(warning)
	}
	o.setPhase("prediction", domain.PhaseComplete, map[string]int{"predicted": len(predictions)}, warning)
	return predictions
}

func (o *Orchestrator) runScoringPhase(log zerolog.Logger, candidates []domain.Candidate, predictions map[string]domain.Prediction, guards map[string]domain.GuardResult, market domain.MarketSentiment) []domain.Opportunity {
	o.setPhase("scoring", domain.PhaseRunning, nil, "")
	timer := o.startTimer("scoring", log)

	opportunities := o.deps.Scorer.Rank(candidates, predictions, guards, market)

	timer.Stop("ok")
	if o.deps.Metrics != nil {
		for _, opp := range opportunities {
			o.deps.Metrics.OpportunityOut.WithLabelValues(string(opp.Rating)).Inc()
		}
	}
	o.setPhase("scoring", domain.PhaseComplete, map[string]int{"opportunities": len(opportunities)}, "")
	return opportunities
}

func (o *Orchestrator) runEmitPhase(log zerolog.Logger, runDir string, runDate time.Time, market domain.MarketSentiment, opportunities []domain.Opportunity, candidates []domain.Candidate) error {
	o.setPhase("report", domain.PhaseRunning, nil, "")
	timer := o.startTimer("report", log)

	reasonCounts := reasonCountsFor(candidates, opportunities)
	emitter := report.New(runDir, log)
	if err := emitter.Emit(runDate, market, opportunities, reasonCounts); err != nil {
		timer.Stop("error")
		o.setPhase("report", domain.PhaseFailed, nil, err.Error())
		return err
	}

	timer.Stop("ok")
	o.setPhase("report", domain.PhaseComplete, map[string]int{"opportunities": len(opportunities)}, "")
	return nil
}

func (o *Orchestrator) runNotifyPhase(log zerolog.Logger, runDir string, opportunities []domain.Opportunity) {
	o.setPhase("notify", domain.PhaseRunning, nil, "")
	if o.deps.Notifier != nil {
		aPlus := 0
		for _, opp := range opportunities {
			if opp.Rating == domain.RatingAPlus {
				aPlus++
			}
		}
		subject := "ASX overnight screen complete"
		body := summaryBody(len(opportunities), aPlus)
		attachments := []string{runDir + "/morning_report.html", runDir + "/full_results.csv"}
		// Send never returns an error worth acting on (§6: non-blocking,
		// failure logged not fatal by the notifier itself).
		_ = o.deps.Notifier.Send(context.Background(), subject, body, attachments)
	}
	o.setPhase("notify", domain.PhaseComplete, nil, "")
}

func (o *Orchestrator) emitNoCandidatesReport(runDir string, runDate time.Time, market domain.MarketSentiment) {
	emitter := report.New(runDir, o.deps.Log)
	reasonCounts := map[string]int{"no_candidates_passed_filters": 1}
	_ = emitter.Emit(runDate, market, nil, reasonCounts)
}

// finishWithHardCap emits a best-effort report from whatever phases
// completed before the 2-hour cap and returns exit code 3 (§6/§7: stop
// scheduling new work, proceed straight to ReportEmitter with partial
// results).
func (o *Orchestrator) finishWithHardCap(runDir string, runDate time.Time, market domain.MarketSentiment,
	candidates []domain.Candidate, predictions map[string]domain.Prediction, guards map[string]domain.GuardResult, log zerolog.Logger) (int, error) {
	log.Warn().Msg("hard run cap reached, emitting partial report")
	o.setPhase("hard_cap", domain.PhaseFailed, nil, "hard run cap reached before all phases completed")

	if guards == nil {
		guards = map[string]domain.GuardResult{}
	}
	if predictions == nil {
		predictions = map[string]domain.Prediction{}
	}
	opportunities := o.deps.Scorer.Rank(candidates, predictions, guards, market)
	reasonCounts := reasonCountsFor(candidates, opportunities)
	emitter := report.New(runDir, log)
	_ = emitter.Emit(runDate, market, opportunities, reasonCounts)

	o.lastCandidateCount = len(candidates)
	o.lastOpportunities = opportunities
	return ExitHardCapReached, domain.ErrHardCapExceeded
}

func (o *Orchestrator) startTimer(phase string, log zerolog.Logger) phaseTimer {
	if o.deps.Metrics == nil {
		return phaseTimer{}
	}
	return phaseTimer{t: o.deps.Metrics.StartPhase(phase, log)}
}

// phaseTimer tolerates a nil metrics registry (e.g. in tests) by making
// Stop a no-op rather than requiring every call site to nil-check.
type phaseTimer struct{ t interface{ Stop(string) } }

func (p phaseTimer) Stop(result string) {
	if p.t != nil {
		p.t.Stop(result)
	}
}

func reasonCountsFor(candidates []domain.Candidate, opportunities []domain.Opportunity) map[string]int {
	scored := make(map[string]struct{}, len(opportunities))
	for _, o := range opportunities {
		scored[o.Candidate.Symbol] = struct{}{}
	}
	counts := map[string]int{}
	for _, c := range candidates {
		if _, ok := scored[c.Symbol]; !ok {
			counts["no_prediction_available"]++
		}
	}
	return counts
}

func summaryBody(total, aPlus int) string {
	if total == 0 {
		return "No opportunities met the screening threshold tonight."
	}
	return fmt.Sprintf("%d opportunities ranked, %d rated A+.", total, aPlus)
}
