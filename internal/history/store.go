// Package history implements the optional run-history store
// (SPEC_FULL.md supplemental features): a Postgres-backed log of past
// runs so an operator can query rating drift and exit-code history
// across nights. Disabled by default, grounded on the teacher's
// internal/infrastructure/db/connection.go Config.Enabled pattern.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

type Config struct {
	Enabled      bool          `yaml:"enabled"`
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

func DefaultConfig() Config {
	return Config{Enabled: false, QueryTimeout: 10 * time.Second}
}

// Store persists run summaries. When disabled it is a no-op so callers
// never need to branch on whether history is configured.
type Store struct {
	db      *sqlx.DB
	cfg     Config
	log     zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Store, error) {
	log = log.With().Str("component", "history").Logger()
	if !cfg.Enabled {
		return &Store{cfg: cfg, log: log}, nil
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required when history.enabled is true")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}

	return &Store{db: db, cfg: cfg, log: log}, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS run_history (
	run_id TEXT PRIMARY KEY,
	run_date TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ,
	exit_code INTEGER NOT NULL,
	candidate_count INTEGER NOT NULL,
	opportunity_count INTEGER NOT NULL,
	a_plus_count INTEGER NOT NULL
)`)
	return err
}

// runSummary is one row in run_history.
type runSummary struct {
	RunID            string     `db:"run_id"`
	RunDate          string     `db:"run_date"`
	StartedAt        time.Time  `db:"started_at"`
	EndedAt          *time.Time `db:"ended_at"`
	ExitCode         int        `db:"exit_code"`
	CandidateCount   int        `db:"candidate_count"`
	OpportunityCount int        `db:"opportunity_count"`
	APlusCount       int        `db:"a_plus_count"`
}

// Record persists the completed run's summary. A no-op when disabled.
func (s *Store) Record(ctx context.Context, state domain.RunState, candidateCount int, opportunities []domain.Opportunity) error {
	if !s.cfg.Enabled {
		return nil
	}

	aPlus := 0
	for _, o := range opportunities {
		if o.Rating == domain.RatingAPlus {
			aPlus++
		}
	}

	summary := runSummary{
		RunID: state.RunID, RunDate: state.Date, StartedAt: state.StartedAt, EndedAt: state.EndedAt,
		ExitCode: state.ExitCode, CandidateCount: candidateCount, OpportunityCount: len(opportunities), APlusCount: aPlus,
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	_, err := s.db.NamedExecContext(queryCtx, `
INSERT INTO run_history (run_id, run_date, started_at, ended_at, exit_code, candidate_count, opportunity_count, a_plus_count)
VALUES (:run_id, :run_date, :started_at, :ended_at, :exit_code, :candidate_count, :opportunity_count, :a_plus_count)
ON CONFLICT (run_id) DO UPDATE SET ended_at = EXCLUDED.ended_at, exit_code = EXCLUDED.exit_code,
	candidate_count = EXCLUDED.candidate_count, opportunity_count = EXCLUDED.opportunity_count, a_plus_count = EXCLUDED.a_plus_count
`, summary)
	if err != nil {
		s.log.Warn().Err(err).Str("run_id", state.RunID).Msg("failed to record run history, continuing")
	}
	return nil // history persistence failure never fails the run (§7 principles)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) IsEnabled() bool { return s.cfg.Enabled }
