package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sawpanic/asxscreen/internal/domain"
)

// SectorsFile is the shape of config/sectors.json (§6): up to 30 tickers
// per sector across the 8 recognized sectors.
type SectorsFile struct {
	Sectors map[string][]string `json:"sectors"`
}

// LoadSectors reads and validates the sector universe file.
func LoadSectors(path string) (map[domain.Sector][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("read sectors file: %w", err)}
	}

	var raw SectorsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("parse sectors file: %w", err)}
	}

	if len(raw.Sectors) == 0 {
		return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("sectors file has no sectors")}
	}

	universe := make(map[domain.Sector][]string, len(raw.Sectors))
	for name, tickers := range raw.Sectors {
		if len(tickers) == 0 {
			continue
		}
		if len(tickers) > 30 {
			return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("sector %q has %d tickers, max 30", name, len(tickers))}
		}
		universe[domain.Sector(name)] = tickers
	}

	if len(universe) == 0 {
		return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("sectors file produced an empty universe")}
	}

	return universe, nil
}
