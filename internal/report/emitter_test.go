package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

func sampleOpportunity(symbol string, score float64) domain.Opportunity {
	return domain.Opportunity{
		Candidate:  domain.Candidate{Symbol: symbol, Sector: domain.SectorFinancials, Price: 10, AvgVolume: 1000000},
		Prediction: domain.Prediction{Symbol: symbol, Direction: domain.DirectionBuy, FinalConfidence: 80},
		Guard:      domain.GuardResult{},
		Score:      score,
		Rating:     domain.RatingForScore(score),
	}
}

func TestEmitWritesAllThreeArtifacts(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, zerolog.Nop())
	opps := []domain.Opportunity{sampleOpportunity("BHP", 90), sampleOpportunity("CBA", 60)}
	market := domain.MarketSentiment{OverallSentiment: domain.SentimentBullish, GapDirection: domain.GapUp}

	if err := e.Emit(time.Now(), market, opps, nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	for _, name := range []string{"morning_report.html", "full_results.csv", "event_risk_summary.csv"} {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("expected artifact %s to exist: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", name)
		}
	}

	html, err := os.ReadFile(filepath.Join(dir, "morning_report.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(html), "BHP") {
		t.Error("HTML report does not mention BHP")
	}

	csvBytes, err := os.ReadFile(filepath.Join(dir, "full_results.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	if len(lines) != 3 {
		t.Errorf("full_results.csv has %d lines, want 3 (header + 2 rows)", len(lines))
	}
}

func TestEmitNoCandidatesStillWritesReport(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, zerolog.Nop())
	reasonCounts := map[string]int{"price_filter": 5, "volume_filter": 3}
	if err := e.Emit(time.Now(), domain.MarketSentiment{}, nil, reasonCounts); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	html, err := os.ReadFile(filepath.Join(dir, "morning_report.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(html), "No candidates produced") {
		t.Error("expected the no-candidates message in the HTML report")
	}
}

func TestWriteAtomicLeavesNoTempFileOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := writeAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("hello")
		return err
	}); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after a successful write")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello" {
		t.Errorf("file content = %q, want hello", data)
	}
}

func TestWriteAtomicRemovesTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	err := writeAtomic(path, func(f *os.File) error {
		return os.ErrInvalid
	})
	if err == nil {
		t.Fatal("expected an error from the failing write function")
	}
	if _, statErr := os.Stat(path + ".tmp"); !os.IsNotExist(statErr) {
		t.Error("temp file should be removed after a failed write")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("final file should not exist after a failed write")
	}
}
