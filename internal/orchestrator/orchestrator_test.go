package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/cache"
	"github.com/sawpanic/asxscreen/internal/config"
	"github.com/sawpanic/asxscreen/internal/domain"
	"github.com/sawpanic/asxscreen/internal/eventguard"
	"github.com/sawpanic/asxscreen/internal/history"
	"github.com/sawpanic/asxscreen/internal/marketdata"
	"github.com/sawpanic/asxscreen/internal/notify"
	"github.com/sawpanic/asxscreen/internal/predictor"
	"github.com/sawpanic/asxscreen/internal/scanner"
	"github.com/sawpanic/asxscreen/internal/scorer"
	"github.com/sawpanic/asxscreen/internal/sentiment"
	"github.com/sawpanic/asxscreen/internal/spimonitor"
)

type stubChartProvider struct {
	bars map[string][]domain.Bar
}

func (s *stubChartProvider) Name() string { return "stub" }

func (s *stubChartProvider) FetchChart(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error) {
	bars, ok := s.bars[symbol]
	if !ok {
		return nil, domain.ErrNoData
	}
	return bars, nil
}

type stubSentiment struct{}

func (stubSentiment) GetSentiment(ctx context.Context, symbol string, windowDays int) (sentiment.Result, error) {
	return sentiment.Result{}, nil
}

func dailyBars(n int, start, step float64, volume int64) []domain.Bar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		bars[i] = domain.Bar{Ts: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: volume}
	}
	return bars
}

func hourlyBars(n int, start, step float64) []domain.Bar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		bars[i] = domain.Bar{Ts: base.Add(time.Duration(i) * time.Hour), Close: c}
	}
	return bars
}

func buildTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	log := zerolog.Nop()

	bars := map[string][]domain.Bar{
		"BHP":    dailyBars(90, 40, 0.1, 2000000),
		"CBA":    dailyBars(90, 100, 0.2, 3000000),
		"^AXJO":  dailyBars(90, 7000, 1, 1000000),
		"SPI200": hourlyBars(12, 7000, 5),
		"^GSPC":  hourlyBars(12, 5000, 3),
		"^IXIC":  hourlyBars(12, 16000, 8),
		"^DJI":   hourlyBars(12, 40000, 10),
	}
	provider := &stubChartProvider{bars: bars}

	adapterCfg := marketdata.DefaultConfig()
	adapterCfg.PrimaryDelaySeconds = 0.001
	adapterCfg.IndexDelaySeconds = 0.001
	adapter := marketdata.NewAdapter(provider, nil, nil, adapterCfg, cache.New(), log)

	loc, _ := time.LoadLocation("Australia/Sydney")
	universe := map[domain.Sector][]string{domain.SectorFinancials: {"BHP", "CBA"}}

	scannerCfg := config.ScannerConfig{MinPrice: 0.50, MinAvgVolume: 500000, MaxWorkers: 2}
	guardCfg := config.EventGuardConfig{
		LookaheadDays: 7, EarningsBufferDays: 3, DividendBufferDays: 1,
		NegSentimentThresh: -0.10, VolSpikeMultiplier: 1.35, HaircutMax: 0.70,
	}
	weights := config.EnsembleWeights{LSTM: 0.45, Trend: 0.25, Technical: 0.15, Sentiment: 0.15}

	sc := scanner.New(adapter, scannerCfg, log)
	spi := spimonitor.New(adapter, log)
	guard := eventguard.New(adapter, stubSentiment{}, nil, nil, guardCfg, loc, log)
	pred := predictor.New(adapter, stubSentiment{}, weights, "", log)
	sco := scorer.New()
	notifier := notify.New(notify.Config{}, log)
	hist, err := history.New(history.DefaultConfig(), log)
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}

	outputRoot := t.TempDir()
	deps := Deps{
		Universe:   universe,
		Scanner:    sc,
		SPIMonitor: spi,
		EventGuard: guard,
		Predictor:  pred,
		Scorer:     sco,
		Notifier:   notifier,
		History:    hist,
		OutputRoot: outputRoot,
		RunLimits:  config.RunLimitsConfig{HardCapMinutes: 120},
		Log:        log,
	}
	return New(deps), outputRoot
}

func TestRunSuccessPathWritesReports(t *testing.T) {
	orch, outputRoot := buildTestOrchestrator(t)
	runDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	code, err := orch.Run(context.Background(), runDate)
	if code != ExitSuccess {
		t.Errorf("exit code = %d, want %d (err=%v)", code, ExitSuccess, err)
	}
	if err != nil {
		t.Errorf("Run returned error on success path: %v", err)
	}

	runDir := filepath.Join(outputRoot, "2026-08-01")
	for _, name := range []string{"morning_report.html", "full_results.csv", "event_risk_summary.csv"} {
		if _, statErr := os.Stat(filepath.Join(runDir, name)); statErr != nil {
			t.Errorf("expected artifact %s: %v", name, statErr)
		}
	}

	state := orch.CurrentState()
	if state == nil {
		t.Fatal("CurrentState() returned nil after a completed run")
	}
	if state.ExitCode != ExitSuccess {
		t.Errorf("state.ExitCode = %d, want %d", state.ExitCode, ExitSuccess)
	}
	for _, phase := range []string{"spi_monitor", "scanner", "event_risk", "prediction", "scoring", "report", "notify"} {
		rec, ok := state.Phases[phase]
		if !ok {
			t.Errorf("missing phase record for %q", phase)
			continue
		}
		if rec.Status != domain.PhaseComplete {
			t.Errorf("phase %q status = %v, want complete", phase, rec.Status)
		}
	}
}

func TestRunNoCandidatesExitsTwo(t *testing.T) {
	orch, outputRoot := buildTestOrchestrator(t)
	orch.deps.Universe = map[domain.Sector][]string{domain.SectorFinancials: {"UNKNOWN"}}
	runDate := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	code, err := orch.Run(context.Background(), runDate)
	if code != ExitNoCandidates {
		t.Errorf("exit code = %d, want %d", code, ExitNoCandidates)
	}
	if err == nil {
		t.Error("expected ErrNoCandidates")
	}
	runDir := filepath.Join(outputRoot, "2026-08-02")
	if _, statErr := os.Stat(filepath.Join(runDir, "morning_report.html")); statErr != nil {
		t.Errorf("expected a no-candidates report to be written: %v", statErr)
	}
}

func TestCurrentStateNilBeforeFirstRun(t *testing.T) {
	orch, _ := buildTestOrchestrator(t)
	if orch.CurrentState() != nil {
		t.Error("CurrentState() should be nil before any run starts")
	}
}

func TestHardCapDefaultsToTwoHours(t *testing.T) {
	orch, _ := buildTestOrchestrator(t)
	orch.deps.RunLimits = config.RunLimitsConfig{}
	if got := orch.hardCap(); got != 2*time.Hour {
		t.Errorf("hardCap() = %v, want 2h default", got)
	}
}
