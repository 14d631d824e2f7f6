package config

import (
	"fmt"
	"os"

	"github.com/sawpanic/asxscreen/internal/domain"
	"gopkg.in/yaml.v3"
)

// RunConfig is the full set of recognized run configuration options (§6).
type RunConfig struct {
	Scanner     ScannerConfig     `yaml:"scanner"`
	EventGuard  EventGuardConfig  `yaml:"event_guard"`
	Ensemble    EnsembleConfig    `yaml:"ensemble"`
	Adapter     AdapterConfig     `yaml:"adapter"`
	Run         RunLimitsConfig   `yaml:"run"`
	History     HistoryConfig     `yaml:"history"`
	StatusAPI   StatusAPIConfig   `yaml:"status_api"`
	Notify      NotifyConfig      `yaml:"notify"`
}

type ScannerConfig struct {
	MinPrice      float64 `yaml:"min_price"`
	MinAvgVolume  int64   `yaml:"min_avg_volume"`
	MaxWorkers    int     `yaml:"max_workers"`
}

type EventGuardConfig struct {
	LookaheadDays       int     `yaml:"lookahead_days"`
	EarningsBufferDays  int     `yaml:"earnings_buffer_days"`
	DividendBufferDays  int     `yaml:"dividend_buffer_days"`
	NegSentimentThresh  float64 `yaml:"neg_sentiment_threshold"`
	VolSpikeMultiplier  float64 `yaml:"vol_spike_multiplier"`
	HaircutMax          float64 `yaml:"haircut_max"`
}

type EnsembleConfig struct {
	Weights EnsembleWeights `yaml:"weights"`
}

type EnsembleWeights struct {
	LSTM       float64 `yaml:"lstm"`
	Trend      float64 `yaml:"trend"`
	Technical  float64 `yaml:"technical"`
	Sentiment  float64 `yaml:"sentiment"`
}

type AdapterConfig struct {
	PrimaryDelaySeconds   float64 `yaml:"primary_delay_s"`
	IndexDelaySeconds     float64 `yaml:"index_delay_s"`
	TimeoutSeconds        float64 `yaml:"timeout_s"`
	FallbackCoolingStreak int     `yaml:"fallback_cooling_streak"`
}

type RunLimitsConfig struct {
	HardCapMinutes int `yaml:"hard_cap_minutes"`
}

// HistoryConfig configures the optional Postgres run-history store (a
// supplemental feature, §SPEC_FULL.md section 3). Disabled by default.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// StatusAPIConfig configures the optional status HTTP server.
type StatusAPIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NotifyConfig selects the Notifier backend (§6 external collaborator).
// An empty config yields a log-only notifier.
type NotifyConfig struct {
	WebhookURL string           `yaml:"webhook_url"`
	SMTP       NotifySMTPConfig `yaml:"smtp"`
}

type NotifySMTPConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// DefaultRunConfig returns the §6 documented defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Scanner: ScannerConfig{MinPrice: 0.50, MinAvgVolume: 500000, MaxWorkers: 2},
		EventGuard: EventGuardConfig{
			LookaheadDays: 7, EarningsBufferDays: 3, DividendBufferDays: 1,
			NegSentimentThresh: -0.10, VolSpikeMultiplier: 1.35, HaircutMax: 0.70,
		},
		Ensemble: EnsembleConfig{Weights: EnsembleWeights{LSTM: 0.45, Trend: 0.25, Technical: 0.15, Sentiment: 0.15}},
		Adapter: AdapterConfig{
			PrimaryDelaySeconds: 0.5, IndexDelaySeconds: 1.0, TimeoutSeconds: 15, FallbackCoolingStreak: 3,
		},
		Run:       RunLimitsConfig{HardCapMinutes: 120},
		History:   HistoryConfig{Enabled: false},
		StatusAPI: StatusAPIConfig{Enabled: false, Addr: ":9090"},
		Notify:    NotifyConfig{},
	}
}

// LoadRunConfig starts from the defaults, overwrites them with every key
// present in run.yaml, and validates the result.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &domain.ConfigError{File: path, Err: fmt.Errorf("read run config: %w", err)}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &domain.ConfigError{File: path, Err: fmt.Errorf("parse run config: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, &domain.ConfigError{File: path, Err: err}
	}
	return cfg, nil
}

// Validate ensures the ensemble weights sum to 1.0 and limits are sane.
func (c RunConfig) Validate() error {
	sum := c.Ensemble.Weights.LSTM + c.Ensemble.Weights.Trend + c.Ensemble.Weights.Technical + c.Ensemble.Weights.Sentiment
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("ensemble.weights must sum to 1.0, got %f", sum)
	}
	if c.Scanner.MinPrice <= 0 {
		return fmt.Errorf("scanner.min_price must be positive")
	}
	if c.Scanner.MaxWorkers <= 0 {
		return fmt.Errorf("scanner.max_workers must be positive")
	}
	if c.EventGuard.HaircutMax <= 0 || c.EventGuard.HaircutMax > 1 {
		return fmt.Errorf("event_guard.haircut_max must be in (0,1]")
	}
	if c.Run.HardCapMinutes <= 0 {
		return fmt.Errorf("run.hard_cap_minutes must be positive")
	}
	return nil
}
