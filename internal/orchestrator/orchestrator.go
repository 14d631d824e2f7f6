// Package orchestrator implements the Orchestrator (§4.9): the seven
// ordered phases of one overnight run that follow configuration loading
// (done by the caller), soft per-phase budgets, the hard
// run cap, and the exit-code mapping. Grounded on the teacher's
// MomentumPipeline (internal/scan/pipeline/momentum_pipeline.go): a
// single struct owning every stage, emitting progress events as it goes,
// continuing past per-item failures rather than aborting the run.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/config"
	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/eventguard"
	"github.com/sawpanic/asxscreen/internal/history"
	"github.com/sawpanic/asxscreen/internal/metrics"
	"github.com/sawpanic/asxscreen/internal/notify"
	"github.com/sawpanic/asxscreen/internal/predictor"
	"github.com/sawpanic/asxscreen/internal/progress"
	"github.com/sawpanic/asxscreen/internal/scanner"
	"github.com/sawpanic/asxscreen/internal/scorer"
	"github.com/sawpanic/asxscreen/internal/spimonitor"
)

// Exit codes per §6.
const (
	ExitSuccess        = 0
	ExitConfigError    = 1
	ExitNoCandidates   = 2
	ExitHardCapReached = 3
	ExitUnhandled      = 4
)

// Soft phase budgets (§4.9): exceeding one logs a warning but never
// cancels the phase in progress.
const (
	scannerBudget    = 20 * time.Minute
	predictionBudget = 20 * time.Minute
	eventRiskBudget  = 10 * time.Minute
)

// Deps bundles every component the orchestrator drives. All are built by
// the caller (cmd/asxscreen) so this package never reads configuration
// files or constructs providers itself.
type Deps struct {
	Universe    map[domain.Sector][]string
	Scanner     *scanner.Scanner
	SPIMonitor  *spimonitor.Monitor
	EventGuard  *eventguard.Guard
	Predictor   *predictor.Predictor
	Scorer      *scorer.Scorer
	Notifier    notify.Notifier
	History     *history.Store
	Metrics     *metrics.Registry
	Progress    *progress.Bus
	OutputRoot  string
	RunLimits   config.RunLimitsConfig
	Log         zerolog.Logger
}

// Orchestrator runs the seven §4.9 pipeline phases and owns the only mutable
// RunState in the process (§9).
type Orchestrator struct {
	deps Deps

	mu    sync.RWMutex
	state domain.RunState

	lastCandidateCount int
	lastOpportunities  []domain.Opportunity
}

func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// CurrentState implements httpapi.StateProvider.
func (o *Orchestrator) CurrentState() *domain.RunState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state.RunID == "" {
		return nil
	}
	cp := o.state
	return &cp
}

func (o *Orchestrator) setPhase(name string, status domain.PhaseStatus, counts map[string]int, warning string) {
	now := time.Now()
	o.mu.Lock()
	rec, ok := o.state.Phases[name]
	if !ok {
		rec = &domain.PhaseRecord{Name: name}
		o.state.Phases[name] = rec
	}
	rec.Status = status
	if status == domain.PhaseRunning && rec.StartedAt == nil {
		rec.StartedAt = &now
	}
	if status == domain.PhaseComplete || status == domain.PhaseFailed {
		rec.EndedAt = &now
	}
	if counts != nil {
		rec.Counts = counts
	}
	if warning != "" {
		rec.Warning = warning
	}
	recCopy := *rec
	stateJSON, marshalErr := json.MarshalIndent(o.state, "", "  ")
	statePath := filepath.Join(o.deps.OutputRoot, o.state.Date, "run_state.json")
	o.mu.Unlock()

	if marshalErr == nil {
		if err := os.WriteFile(statePath, stateJSON, 0o644); err != nil {
			o.deps.Log.Warn().Err(err).Str("path", statePath).Msg("failed to persist run state")
		}
	}

	if o.deps.Progress != nil {
		o.deps.Progress.Publish(recCopy)
	}
}

// Run executes the full pipeline for runDate and returns the process exit
// code per §6. Per-symbol failures inside a phase never abort the run; no
// panic is recovered. The caller is expected to pass the returned code
// straight to os.Exit.
func (o *Orchestrator) Run(ctx context.Context, runDate time.Time) (code int, err error) {
	runID := uuid.NewString()
	runDir := filepath.Join(o.deps.OutputRoot, runDate.Format("2006-01-02"))
	if mkErr := os.MkdirAll(runDir, 0o755); mkErr != nil {
		return ExitConfigError, fmt.Errorf("create run directory: %w", mkErr)
	}

	o.mu.Lock()
	o.state = domain.RunState{
		RunID:     runID,
		Date:      runDate.Format("2006-01-02"),
		Phases:    make(map[string]*domain.PhaseRecord),
		StartedAt: time.Now(),
	}
	o.mu.Unlock()

	log := o.deps.Log.With().Str("run_id", runID).Str("date", o.state.Date).Logger()
	hardCapDeadline := time.Now().Add(o.hardCap())

	defer func() {
		ended := time.Now()
		o.mu.Lock()
		o.state.EndedAt = &ended
		o.state.ExitCode = code
		o.mu.Unlock()
		if o.deps.History != nil {
			_ = o.deps.History.Record(ctx, *o.CurrentState(), o.lastCandidateCount, o.lastOpportunities)
		}
	}()

	// Phase 1: SPI / overnight market sentiment.
	market, err := o.runSPIPhase(ctx, log)
	if err != nil {
		return ExitUnhandled, err
	}

	// Phase 2: stock scan.
	candidates, err := o.runScanPhase(ctx, log)
	if err != nil {
		return ExitUnhandled, err
	}
	if len(candidates) == 0 {
		o.emitNoCandidatesReport(runDir, runDate, market)
		return ExitNoCandidates, domain.ErrNoCandidates
	}
	if pastDeadline(hardCapDeadline) {
		return o.finishWithHardCap(runDir, runDate, market, candidates, nil, nil, log)
	}

	// Phase 3: event risk assessment (parallel, capped workers per §4.9).
	guards := o.runEventRiskPhase(ctx, log, candidates)
	if pastDeadline(hardCapDeadline) {
		return o.finishWithHardCap(runDir, runDate, market, candidates, nil, guards, log)
	}

	// Phase 4: batch prediction.
	predictions := o.runPredictionPhase(ctx, log, candidates, guards)
	if pastDeadline(hardCapDeadline) {
		return o.finishWithHardCap(runDir, runDate, market, candidates, predictions, guards, log)
	}

	// Phase 5: scoring.
	opportunities := o.runScoringPhase(log, candidates, predictions, guards, market)

	// Phase 6: report emission.
	if err := o.runEmitPhase(log, runDir, runDate, market, opportunities, candidates); err != nil {
		return ExitUnhandled, err
	}

	// Phase 7: notify.
	o.runNotifyPhase(log, runDir, opportunities)

	o.lastCandidateCount = len(candidates)
	o.lastOpportunities = opportunities
	return ExitSuccess, nil
}

func (o *Orchestrator) hardCap() time.Duration {
	if o.deps.RunLimits.HardCapMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(o.deps.RunLimits.HardCapMinutes) * time.Minute
}

func pastDeadline(deadline time.Time) bool { return time.Now().After(deadline) }
