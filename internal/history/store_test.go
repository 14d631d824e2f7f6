package history

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

func TestDisabledStoreRecordIsNoOp(t *testing.T) {
	store, err := New(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.IsEnabled() {
		t.Error("expected disabled store by default")
	}
	state := domain.RunState{RunID: "x", Date: "2026-08-01", StartedAt: time.Now()}
	if err := store.Record(context.Background(), state, 10, nil); err != nil {
		t.Errorf("Record on a disabled store should never error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on a disabled store should never error, got %v", err)
	}
}

func TestNewEnabledWithoutDSNErrors(t *testing.T) {
	cfg := Config{Enabled: true}
	if _, err := New(cfg, zerolog.Nop()); err == nil {
		t.Error("expected an error when history is enabled with no DSN")
	}
}
