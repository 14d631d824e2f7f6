// Package metrics defines the Prometheus registry for the screening run,
// grounded on the teacher's internal/interfaces/http/metrics.go registry
// shape (histograms per phase, counters per provider/result).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Registry holds every Prometheus collector the pipeline emits.
type Registry struct {
	PhaseDuration  *prometheus.HistogramVec
	PhaseStatus    *prometheus.CounterVec
	ProviderReqs   *prometheus.CounterVec
	FallbackActive prometheus.Gauge
	CandidatesOut  prometheus.Gauge
	OpportunityOut *prometheus.CounterVec
	SentimentCalls *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := &Registry{
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "asxscreen_phase_duration_seconds",
				Help:    "Duration of each orchestrator phase in seconds",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"phase", "result"},
		),
		PhaseStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asxscreen_phase_total",
				Help: "Total phase completions by phase and status",
			},
			[]string{"phase", "status"},
		),
		ProviderReqs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asxscreen_provider_requests_total",
				Help: "Total market-data provider requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		FallbackActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "asxscreen_fallback_active",
				Help: "1 when the primary provider is cooling and fallback is serving all requests",
			},
		),
		CandidatesOut: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "asxscreen_candidates_current",
				Help: "Number of candidates produced by the most recent scan",
			},
		),
		OpportunityOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asxscreen_opportunities_total",
				Help: "Total opportunities emitted by rating band",
			},
			[]string{"rating"},
		),
		SentimentCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asxscreen_sentiment_requests_total",
				Help: "Total sentiment provider calls by outcome",
			},
			[]string{"outcome"},
		),
	}

	prometheus.MustRegister(
		r.PhaseDuration, r.PhaseStatus, r.ProviderReqs, r.FallbackActive,
		r.CandidatesOut, r.OpportunityOut, r.SentimentCalls,
	)
	return r
}

// PhaseTimer tracks one phase's wall-clock duration.
type PhaseTimer struct {
	registry *Registry
	phase    string
	start    time.Time
	log      zerolog.Logger
}

func (r *Registry) StartPhase(phase string, log zerolog.Logger) *PhaseTimer {
	return &PhaseTimer{registry: r, phase: phase, start: time.Now(), log: log}
}

func (t *PhaseTimer) Stop(result string) {
	duration := time.Since(t.start)
	t.registry.PhaseDuration.WithLabelValues(t.phase, result).Observe(duration.Seconds())
	t.registry.PhaseStatus.WithLabelValues(t.phase, result).Inc()
	t.log.Debug().Str("phase", t.phase).Str("result", result).Dur("duration", duration).Msg("phase completed")
}
