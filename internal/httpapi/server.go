// Package httpapi implements the optional status HTTP server (SPEC_FULL.md
// supplemental features): a read-only view of RunState plus the
// Prometheus scrape endpoint, so an external scheduler or dashboard can
// watch a run in progress without tailing logs. Grounded on the
// teacher's internal/interfaces/http/server.go router/middleware shape.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

// StateProvider is read by the health endpoint; the orchestrator is the
// only writer of RunState (§9), so the server only ever reads it.
type StateProvider interface {
	CurrentState() *domain.RunState
}

type Server struct {
	router *mux.Router
	server *http.Server
	state  StateProvider
	log    zerolog.Logger
}

func New(addr string, state StateProvider, log zerolog.Logger) *Server {
	s := &Server{state: state, log: log.With().Str("component", "httpapi").Logger()}
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router = router
	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("duration", time.Since(start)).Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	state := s.state.CurrentState()
	if state == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "no run in progress"})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(state)
}

// Router exposes the underlying router so callers can mount additional
// routes (e.g. the progress websocket) without this package depending on
// them.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("status server listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
