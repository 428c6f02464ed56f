package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"nowas_backend/internal/email"
	"nowas_backend/internal/events"
	"nowas_backend/internal/leads/repository"
	"nowas_backend/internal/leads/service"
	"nowas_backend/internal/whatsapp"
	"nowas_backend/platform/apperr"
	"nowas_backend/platform/httpkit"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) SendLeadNotification(context.Context, email.LeadNotification) error {
	n.calls++
	return n.err
}

type countingMessenger struct{ calls int }

func (m *countingMessenger) SendLeadMessage(context.Context, whatsapp.LeadMessage) error {
	m.calls++
	return nil
}

type staticLinks struct{}

func (staticLinks) ContactLink(name string) string {
	return "https://wa.me/34600000000?text=" + url.QueryEscape(name)
}

type fixture struct {
	engine    *gin.Engine
	store     *repository.MemoryStore
	notifier  *countingNotifier
	messenger *countingMessenger
}

func newFixture(limit gin.HandlerFunc) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		store:     repository.NewMemoryStore(),
		notifier:  &countingNotifier{},
		messenger: &countingMessenger{},
	}
	log := logger.Discard()
	svc := service.New(f.store, f.notifier, f.messenger, events.NewInMemoryBus(log), validator.New(), log)
	h := New(svc, staticLinks{})

	f.engine = gin.New()
	handlers := []gin.HandlerFunc{h.SubmitDemo}
	if limit != nil {
		handlers = append([]gin.HandlerFunc{limit}, handlers...)
	}
	f.engine.POST("/send-demo", handlers...)
	return f
}

func (f *fixture) postJSON(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send-demo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func (f *fixture) stored(t *testing.T) int {
	t.Helper()
	leads, err := f.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return len(leads)
}

func TestSubmitDemoJSON(t *testing.T) {
	f := newFixture(nil)

	rec := f.postJSON(`{"name":"Ana","phone":"600 000 000","email":"ana@example.com","note":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["ok"] != true || body["success"] != true {
		t.Fatalf("unexpected body %v", body)
	}
	if link, _ := body["whatsapp"].(string); !strings.HasPrefix(link, "https://wa.me/") {
		t.Fatalf("expected chat link, got %v", body["whatsapp"])
	}
	if f.stored(t) != 1 || f.notifier.calls != 1 || f.messenger.calls != 1 {
		t.Fatal("expected exactly one row, one email and one message")
	}
}

func TestSubmitDemoForm(t *testing.T) {
	f := newFixture(nil)

	form := url.Values{"name": {"Luis"}, "phone": {"+34 611 222 333"}, "email": {"luis@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/send-demo", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitDemoValidationError(t *testing.T) {
	f := newFixture(nil)

	rec := f.postJSON(`{"name":"A","phone":"600000000","email":"ana@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["ok"] != false || body["error"] == "" || body["error"] == apperr.GenericMessage {
		t.Fatalf("validation message must be surfaced, got %v", body)
	}
	if f.stored(t) != 0 || f.notifier.calls != 0 || f.messenger.calls != 0 {
		t.Fatal("invalid submissions must have no side effects")
	}
}

func TestSubmitDemoMalformedBody(t *testing.T) {
	f := newFixture(nil)

	if rec := f.postJSON(`{"name":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestSubmitDemoDownstreamFailureIsGeneric(t *testing.T) {
	f := newFixture(nil)
	f.notifier.err = apperr.DeliveryFailed("email.smtp", errors.New("535 auth failed"))

	rec := f.postJSON(`{"name":"Ana","phone":"600000000","email":"ana@example.com"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decode(t, rec); body["error"] != apperr.GenericMessage {
		t.Fatalf("expected generic error, got %v", body)
	}
	if f.messenger.calls != 0 {
		t.Fatal("messaging must not run after the email stage failed")
	}
}

func TestSubmitDemoRateLimited(t *testing.T) {
	limiter := httpkit.NewFixedWindowLimiter(httpkit.NewMemoryWindowCounter(), 2, time.Minute, "Demasiadas solicitudes", logger.Discard())
	f := newFixture(limiter.Middleware())

	payload := `{"name":"Ana","phone":"600000000","email":"ana@example.com"}`
	for i := 0; i < 2; i++ {
		if rec := f.postJSON(payload); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := f.postJSON(payload)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body := decode(t, rec); body["error"] != "Demasiadas solicitudes" {
		t.Fatalf("expected configured message, got %v", body)
	}
	if f.stored(t) != 2 || f.notifier.calls != 2 {
		t.Fatal("rate limited requests must have no side effects")
	}
}
