package predictor

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

// lstmPrediction is one entry in the optional LSTM sidecar file: a
// per-symbol probability distribution produced out-of-band by whatever
// model training pipeline the operator runs (out of scope here, §4.5).
type lstmPrediction struct {
	Symbol            string  `json:"symbol"`
	UpProbability     float64 `json:"up_probability"`
	ExpectedChangePct float64 `json:"expected_change_pct"`
}

// lstmModel reads pre-computed predictions from a JSON sidecar file
// rather than running inference in-process — no real ONNX/TF runtime is
// part of this stack. A symbol absent from the file reports Fired=false
// so the ensemble renormalizes around the remaining three models
// (§4.5's ModelMissing contract).
type lstmModel struct {
	mu          sync.RWMutex
	predictions map[string]lstmPrediction
	log         zerolog.Logger
}

func newLSTMModel(sidecarPath string, log zerolog.Logger) *lstmModel {
	m := &lstmModel{predictions: map[string]lstmPrediction{}, log: log.With().Str("component", "lstm_model").Logger()}
	if sidecarPath == "" {
		return m
	}
	if err := m.load(sidecarPath); err != nil {
		m.log.Warn().Err(err).Str("path", sidecarPath).Msg("LSTM sidecar unavailable, model disabled for this run")
	}
	return m
}

func (m *lstmModel) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var entries []lstmPrediction
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	bysymbol := make(map[string]lstmPrediction, len(entries))
	for _, e := range entries {
		bysymbol[e.Symbol] = e
	}
	m.mu.Lock()
	m.predictions = bysymbol
	m.mu.Unlock()
	return nil
}

// predict returns a direction/confidence pair and whether the model
// fired for this symbol.
func (m *lstmModel) predict(symbol string) (domain.Direction, float64, bool) {
	m.mu.RLock()
	pred, ok := m.predictions[symbol]
	m.mu.RUnlock()
	if !ok {
		return domain.DirectionHold, 0, false
	}

	switch {
	case pred.UpProbability >= 0.55:
		return domain.DirectionBuy, pred.UpProbability, true
	case pred.UpProbability <= 0.45:
		return domain.DirectionSell, 1 - pred.UpProbability, true
	default:
		return domain.DirectionHold, 0.5, true
	}
}
