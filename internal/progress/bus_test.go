package progress

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/domain"
)

func TestBusPublishesToSubscribedWebsocketClient(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(bus.Handler))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the server goroutine a moment to register the subscriber before
	// publishing, since subscribe() races with the dial's return.
	time.Sleep(20 * time.Millisecond)

	rec := domain.PhaseRecord{Name: "scan", Status: domain.PhaseRunning}
	bus.Publish(rec)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if !strings.Contains(string(data), "scan") {
		t.Errorf("received message does not mention the phase name: %s", data)
	}
}

func TestBusPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		bus.Publish(domain.PhaseRecord{Name: "scan"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
