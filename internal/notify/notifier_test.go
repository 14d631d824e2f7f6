package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLogNotifierSendNeverErrors(t *testing.T) {
	n := &logNotifier{}
	if err := n.Send(context.Background(), "subj", "body", nil); err != nil {
		t.Errorf("logNotifier.Send returned %v, want nil", err)
	}
}

func TestWebhookNotifierPostsPayload(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := &webhookNotifier{url: srv.URL, client: srv.Client()}
	if err := n.Send(context.Background(), "subj", "body", []string{"a.csv"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case ct := <-received:
		if ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook never received a request")
	}
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := &webhookNotifier{url: srv.URL, client: srv.Client()}
	if err := n.Send(context.Background(), "subj", "body", nil); err == nil {
		t.Error("expected an error on HTTP 500")
	}
}

func TestNewSelectsLogNotifierByDefault(t *testing.T) {
	notifier := New(Config{}, zerolog.Nop())
	wrapped, ok := notifier.(*nonBlockingNotifier)
	if !ok {
		t.Fatalf("New should always return a *nonBlockingNotifier, got %T", notifier)
	}
	if _, ok := wrapped.inner.(*logNotifier); !ok {
		t.Errorf("expected logNotifier backend for an empty config, got %T", wrapped.inner)
	}
}

func TestNonBlockingNotifierSendReturnsImmediately(t *testing.T) {
	n := New(Config{WebhookURL: "http://127.0.0.1:1"}, zerolog.Nop())
	start := time.Now()
	if err := n.Send(context.Background(), "subj", "body", nil); err != nil {
		t.Errorf("Send should never return an error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Send took %v, expected to return immediately (non-blocking)", elapsed)
	}
}
