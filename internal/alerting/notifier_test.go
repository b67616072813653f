package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/mail.v2"

	"dip-screener/internal/model"
)

func ptr(v float64) *float64 { return &v }

func sampleReport() *model.OpportunityReport {
	return &model.OpportunityReport{
		Date: "2024-03-08",
		Opportunities: []model.AnalysisResult{
			{Ticker: "INTC", DropPct: -25, RSI: ptr(31.4)},
			{Ticker: "PFE", DropPct: -21.37, RSI: ptr(38)},
		},
	}
}

func TestSubjectAndBody(t *testing.T) {
	report := sampleReport()
	if got := Subject(report); got != "(2) Opportunities - 2024-03-08" {
		t.Fatalf("unexpected subject %q", got)
	}
	want := "INTC: -25.0% | RSI 31.4\nPFE: -21.37% | RSI 38.0"
	if got := Body(report); got != want {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Telegram Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if !strings.HasPrefix(received["text"], "(2) Opportunities - 2024-03-08") {
		t.Fatalf("unexpected text %q", received["text"])
	}
	if !strings.Contains(received["text"], "INTC: -25.0% | RSI 31.4") {
		t.Fatalf("text should list opportunities: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleReport()); err == nil {
		t.Fatal("ok=false should fail")
	}
}

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func completeEmail() EmailOptions {
	return EmailOptions{Host: "smtp.example.com", Port: 465, Username: "bot@example.com", Password: "secret", To: []string{"me@example.com"}}
}

func TestEmailNotifierSends(t *testing.T) {
	sender := &fakeSender{}
	opts := completeEmail()
	opts.From = "bot@example.com"
	notifier := newEmailNotifier(opts, sender, testLogger())

	if err := notifier.Notify(context.Background(), sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != "(2) Opportunities - 2024-03-08" {
		t.Fatalf("unexpected subject %v", got)
	}
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "me@example.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
	if got := msg.GetHeader("From"); len(got) != 1 || got[0] != "bot@example.com" {
		t.Fatalf("unexpected sender %v", got)
	}
}

func TestEmailNotifierDisabled(t *testing.T) {
	for name, mutate := range map[string]func(*EmailOptions){
		"host":     func(o *EmailOptions) { o.Host = "" },
		"username": func(o *EmailOptions) { o.Username = "" },
		"password": func(o *EmailOptions) { o.Password = "" },
		"to":       func(o *EmailOptions) { o.To = nil },
	} {
		opts := completeEmail()
		mutate(&opts)
		if opts.Enabled() {
			t.Fatalf("missing %s should disable email", name)
		}
		sender := &fakeSender{}
		if err := newEmailNotifier(opts, sender, testLogger()).Notify(context.Background(), sampleReport()); err != nil {
			t.Fatalf("disabled email should not fail: %v", err)
		}
		if len(sender.sent) != 0 {
			t.Fatalf("disabled email should not send (%s)", name)
		}
	}
}

func TestEmailNotifierTransportError(t *testing.T) {
	sender := &fakeSender{err: errors.New("auth failed")}
	err := newEmailNotifier(completeEmail(), sender, testLogger()).Notify(context.Background(), sampleReport())
	if err == nil || !strings.Contains(err.Error(), "auth failed") {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestNewEmailNotifierDefaultsFrom(t *testing.T) {
	opts := completeEmail()
	opts.Port = 0
	n := NewEmailNotifier(opts, testLogger())
	if n.opts.From != "bot@example.com" || n.opts.Port != 465 {
		t.Fatalf("unexpected defaults %+v", n.opts)
	}
}

func TestNewEmailNotifierRequiresTLS(t *testing.T) {
	implicit := NewEmailNotifier(completeEmail(), testLogger())
	if d, ok := implicit.sender.(*mail.Dialer); !ok || !d.SSL {
		t.Fatalf("port 465 should use implicit TLS, got %+v", implicit.sender)
	}

	opts := completeEmail()
	opts.Port = 587
	starttls := NewEmailNotifier(opts, testLogger())
	d, ok := starttls.sender.(*mail.Dialer)
	if !ok || d.SSL || d.StartTLSPolicy != mail.MandatoryStartTLS {
		t.Fatalf("port 587 should require STARTTLS, got %+v", starttls.sender)
	}
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, *model.OpportunityReport) error {
	s.calls++
	return s.err
}

func TestMultiDeliversToAll(t *testing.T) {
	first := &stubNotifier{err: errors.New("first down")}
	second := &stubNotifier{}
	third := &stubNotifier{err: errors.New("third down")}

	err := Multi{first, nil, second, third}.Notify(context.Background(), sampleReport())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatal("every notifier should be called once")
	}
	if !strings.Contains(err.Error(), "first down") || !strings.Contains(err.Error(), "third down") {
		t.Fatalf("combined error should mention both failures: %v", err)
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
