package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadSectorsValid(t *testing.T) {
	p := writeTemp(t, "sectors.json", `{"sectors":{"financials":["CBA","WBC"]}}`)
	universe, err := LoadSectors(p)
	if err != nil {
		t.Fatalf("LoadSectors: %v", err)
	}
	if len(universe["financials"]) != 2 {
		t.Errorf("expected 2 tickers in financials, got %d", len(universe["financials"]))
	}
}

func TestLoadSectorsEmptyFileErrors(t *testing.T) {
	p := writeTemp(t, "sectors.json", `{"sectors":{}}`)
	if _, err := LoadSectors(p); err == nil {
		t.Error("expected error for a sectors file with no sectors")
	}
}

func TestLoadSectorsTooManyTickersErrors(t *testing.T) {
	tickers := make([]string, 31)
	for i := range tickers {
		tickers[i] = `"T"`
	}
	body := `{"sectors":{"financials":[` + joinStrs(tickers, ",") + `]}}`
	p := writeTemp(t, "sectors.json", body)
	if _, err := LoadSectors(p); err == nil {
		t.Error("expected error for a sector with more than 30 tickers")
	}
}

func joinStrs(items []string, sep string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}

func TestLoadSectorsMissingFile(t *testing.T) {
	if _, err := LoadSectors("/nonexistent/sectors.json"); err == nil {
		t.Error("expected error loading a missing sectors file")
	}
}
