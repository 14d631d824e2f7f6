// Package notify implements the Notifier external collaborator contract
// (§6): send(subject, body, attachments), non-blocking, failure logged
// not fatal. Grounded on the teacher's AlertHandler interface family in
// internal/report/perf/alerting.go (one interface, several concrete
// handlers selected by config).
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier is the §6 external collaborator contract.
type Notifier interface {
	Send(ctx context.Context, subject, body string, attachments []string) error
}

// Config selects and configures the notifier backend. Exactly one of
// Webhook/SMTP should be set; an empty config yields a log-only notifier.
type Config struct {
	WebhookURL string       `yaml:"webhook_url"`
	SMTP       SMTPConfig   `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

func (c SMTPConfig) enabled() bool { return c.Host != "" && len(c.To) > 0 }

// New builds the configured notifier, always wrapped so a failure never
// propagates to the caller (§6: "failure logged, not fatal").
func New(cfg Config, log zerolog.Logger) Notifier {
	log = log.With().Str("component", "notify").Logger()
	var inner Notifier
	switch {
	case cfg.WebhookURL != "":
		inner = &webhookNotifier{url: cfg.WebhookURL, client: &http.Client{Timeout: 10 * time.Second}}
	case cfg.SMTP.enabled():
		inner = &smtpNotifier{cfg: cfg.SMTP}
	default:
		inner = &logNotifier{log: log}
	}
	return &nonBlockingNotifier{inner: inner, log: log}
}

// nonBlockingNotifier fires the send on its own goroutine and logs any
// failure instead of returning it, per §6's contract.
type nonBlockingNotifier struct {
	inner Notifier
	log   zerolog.Logger
}

func (n *nonBlockingNotifier) Send(ctx context.Context, subject, body string, attachments []string) error {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.inner.Send(sendCtx, subject, body, attachments); err != nil {
			n.log.Warn().Err(err).Str("subject", subject).Msg("notification delivery failed")
		}
	}()
	return nil
}

type logNotifier struct{ log zerolog.Logger }

func (l *logNotifier) Send(ctx context.Context, subject, body string, attachments []string) error {
	l.log.Info().Str("subject", subject).Strs("attachments", attachments).Msg(body)
	return nil
}

type webhookNotifier struct {
	url    string
	client *http.Client
}

func (w *webhookNotifier) Send(ctx context.Context, subject, body string, attachments []string) error {
	payload := strings.NewReader(fmt.Sprintf(`{"subject":%q,"body":%q,"attachments":%q}`, subject, body, strings.Join(attachments, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook notify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notify: http %d", resp.StatusCode)
	}
	return nil
}

// smtpNotifier sends plain-text email. No example repo wires a real SMTP
// client library (the teacher's own EmailHandler is a println stub), so
// this uses the standard library's net/smtp directly — see DESIGN.md.
type smtpNotifier struct {
	cfg SMTPConfig
}

func (s *smtpNotifier) Send(ctx context.Context, subject, body string, attachments []string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.From, strings.Join(s.cfg.To, ","), subject, body)
	if len(attachments) > 0 {
		msg += "\r\nAttachments (by reference): " + strings.Join(attachments, ", ") + "\r\n"
	}

	return smtp.SendMail(addr, auth, s.cfg.From, s.cfg.To, []byte(msg))
}
