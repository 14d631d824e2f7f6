package config

import (
	"fmt"
	"os"

	"github.com/sawpanic/asxscreen/internal/domain"
	"gopkg.in/yaml.v3"
)

// ProvidersConfig is config/providers.yaml (§6): the network endpoint for
// each named chart provider plus global HTTP client settings, mirroring
// the teacher's internal/config/providers.go per-provider/global split
// (here scoped to ChartProvider endpoints rather than the teacher's
// venue-wide RPS/budget tracking, which this pipeline doesn't need since
// MarketDataAdapter's own pacer/breaker already governs request pacing).
type ProvidersConfig struct {
	Providers map[string]ProviderEndpoint `yaml:"providers"`
	Global    ProvidersGlobalConfig       `yaml:"global"`
}

type ProviderEndpoint struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds float64 `yaml:"timeout_s"`
}

type ProvidersGlobalConfig struct {
	UserAgent string `yaml:"user_agent"`
}

// LoadProvidersConfig reads config/providers.yaml and validates that the
// two required provider keys, "primary" and "fallback", are present.
func LoadProvidersConfig(path string) (ProvidersConfig, error) {
	var cfg ProvidersConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &domain.ConfigError{File: path, Err: fmt.Errorf("read providers config: %w", err)}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &domain.ConfigError{File: path, Err: fmt.Errorf("parse providers config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &domain.ConfigError{File: path, Err: err}
	}
	return cfg, nil
}

func (c ProvidersConfig) Validate() error {
	for _, required := range []string{"primary", "fallback"} {
		p, ok := c.Providers[required]
		if !ok {
			return fmt.Errorf("providers.%s is required", required)
		}
		if p.BaseURL == "" {
			return fmt.Errorf("providers.%s.base_url is required", required)
		}
	}
	return nil
}
