// Package progress implements the live progress bus (SPEC_FULL.md
// supplemental features): the orchestrator publishes PhaseRecord updates
// as it runs, and connected dashboards receive them over a websocket.
// The teacher's only gorilla/websocket usage is the client (Dialer) side
// against exchange feeds; this is the same library's server (Upgrader)
// side, applied to a different direction of the same protocol.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

// Bus fans out PhaseRecord updates to every connected subscriber. The
// orchestrator is the sole publisher (§9: RunState is orchestrator-owned
// mutable state).
type Bus struct {
	mu          sync.Mutex
	subscribers map[chan domain.PhaseRecord]struct{}
	log         zerolog.Logger
}

func NewBus(log zerolog.Logger) *Bus {
	return &Bus{subscribers: make(map[chan domain.PhaseRecord]struct{}), log: log.With().Str("component", "progress").Logger()}
}

func (b *Bus) Publish(rec domain.PhaseRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- rec:
		default:
			// Slow subscriber: drop the update rather than block the
			// orchestrator on a stalled websocket client.
		}
	}
}

func (b *Bus) subscribe() chan domain.PhaseRecord {
	ch := make(chan domain.PhaseRecord, 16)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) unsubscribe(ch chan domain.PhaseRecord) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
	close(ch)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // local dashboard only
}

// Handler upgrades a connection and streams PhaseRecord updates until the
// client disconnects.
func (b *Bus) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for rec := range ch {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
