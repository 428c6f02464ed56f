package email

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nowas_backend/platform/apperr"
)

func sampleNotification() LeadNotification {
	return LeadNotification{
		Name:        "Ana *López*",
		Phone:       "600000000",
		Email:       "ana@example.com",
		Note:        "Quiero probar <b>spinning</b>",
		SubmittedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestComposeLeadNotification(t *testing.T) {
	msg, err := ComposeLeadNotification(sampleNotification())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if msg.Subject != "Nueva demo - Ana *López*" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Nombre: Ana *López*", "Teléfono: 600000000", "Email: ana@example.com", "Nota: Quiero probar"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, "<strong>Teléfono:</strong>") {
		t.Fatalf("expected markdown to render to HTML, got:\n%s", msg.HTML)
	}
	if strings.Contains(msg.HTML, "<b>spinning</b>") || strings.Contains(msg.HTML, "<em>López</em>") {
		t.Fatalf("user text must not inject markup, got:\n%s", msg.HTML)
	}
}

func TestComposeLeadNotificationMultiLineNote(t *testing.T) {
	n := sampleNotification()
	n.Note = "Hola\r\n# Titulo\n- item falso\n1. uno\n\n    codigo\n---\n> cita"

	msg, err := ComposeLeadNotification(n)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if got := strings.Count(msg.HTML, "<li>"); got != 4 {
		t.Fatalf("expected only the 4 template list items, got %d:\n%s", got, msg.HTML)
	}
	for _, bad := range []string{"<h1>", "<ol>", "<hr", "<pre>", "<blockquote>"} {
		if strings.Contains(msg.HTML, bad) {
			t.Fatalf("note must not open %s, got:\n%s", bad, msg.HTML)
		}
	}
	if !strings.Contains(msg.HTML, "# Titulo") || !strings.Contains(msg.HTML, "- item falso") {
		t.Fatalf("expected note lines as literal text, got:\n%s", msg.HTML)
	}
}

func TestResendSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer re_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	sender, err := NewResendSender("re_test", "gym@example.com", "staff@example.com", srv.URL)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if err := sender.SendLeadNotification(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got["subject"] != "Nueva demo - Ana *López*" || got["from"] != "gym@example.com" {
		t.Fatalf("unexpected request %v", got)
	}
	if to, _ := got["to"].([]any); len(to) != 1 || to[0] != "staff@example.com" {
		t.Fatalf("unexpected recipients %v", got["to"])
	}
}

func TestResendSenderFailureIsDeliveryFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"statusCode":500,"message":"down","name":"internal_server_error"}`))
	}))
	defer srv.Close()

	sender, _ := NewResendSender("re_test", "gym@example.com", "staff@example.com", srv.URL)
	err := sender.SendLeadNotification(context.Background(), sampleNotification())
	if !apperr.Is(err, apperr.KindDeliveryFailed) {
		t.Fatalf("expected delivery failure, got %v", err)
	}
}

func TestSMTPSenderUnreachableIsDeliveryFailed(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	sender := NewSMTPSender("127.0.0.1", port, "user", "pass", "gym@example.com", "Gym", "staff@example.com")
	sender.timeout = 2 * time.Second

	err = sender.SendLeadNotification(context.Background(), sampleNotification())
	if !apperr.Is(err, apperr.KindDeliveryFailed) {
		t.Fatalf("expected delivery failure, got %v", err)
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).SendLeadNotification(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("noop should not fail: %v", err)
	}
}
