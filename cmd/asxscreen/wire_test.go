package main

import (
	"testing"
	"time"
)

func TestProviderTimeoutPrefersOverride(t *testing.T) {
	got := providerTimeout(5, 15)
	if got != 5*time.Second {
		t.Errorf("providerTimeout(5, 15) = %v, want 5s", got)
	}
}

func TestProviderTimeoutFallsBackWhenUnset(t *testing.T) {
	got := providerTimeout(0, 15)
	if got != 15*time.Second {
		t.Errorf("providerTimeout(0, 15) = %v, want 15s", got)
	}
}

func TestProviderTimeoutFallsBackOnNegativeOverride(t *testing.T) {
	got := providerTimeout(-1, 20)
	if got != 20*time.Second {
		t.Errorf("providerTimeout(-1, 20) = %v, want 20s", got)
	}
}

func TestDefaultWireConfigPopulatesAllPaths(t *testing.T) {
	wc := defaultWireConfig()
	if wc.SectorsPath == "" || wc.CalendarPath == "" || wc.RunConfigPath == "" || wc.ProvidersPath == "" || wc.OutputRoot == "" {
		t.Errorf("defaultWireConfig left a path empty: %+v", wc)
	}
	if wc.LSTMSidecarPath != "" {
		t.Errorf("LSTM sidecar path should default to empty (opt-in model), got %q", wc.LSTMSidecarPath)
	}
}
