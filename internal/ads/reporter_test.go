package ads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"nowas_backend/internal/events"
	"nowas_backend/platform/config"
	"nowas_backend/platform/logger"

	"github.com/google/uuid"
)

func adsConfig(endpoint string) *config.Config {
	return &config.Config{
		AdsConversionID:       "AW-123",
		AdsConversionLabel:    "demo",
		AdsConversionValue:    "1.5",
		AdsConversionCurrency: "eur",
		AdsEndpoint:           endpoint,
	}
}

func TestReportSendsFixedParameters(t *testing.T) {
	var (
		mu    sync.Mutex
		path  string
		query url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		path = r.URL.Path
		query = r.URL.Query()
	}))
	defer srv.Close()

	r, err := NewReporter(adsConfig(srv.URL), logger.Discard())
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	if err := r.Report(context.Background(), "lead-1"); err != nil {
		t.Fatalf("report: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if path != "/AW-123/" {
		t.Fatalf("unexpected path %s", path)
	}
	if query.Get("value") != "1.50" || query.Get("currency_code") != "EUR" || query.Get("label") != "demo" || query.Get("oid") != "lead-1" {
		t.Fatalf("unexpected query %v", query)
	}
}

func TestReportFailureIsReportingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r, _ := NewReporter(adsConfig(srv.URL), logger.Discard())
	err := r.Report(context.Background(), "lead-1")

	var reportErr *ReportingError
	if !errors.As(err, &reportErr) {
		t.Fatalf("expected ReportingError, got %v", err)
	}
}

func TestHandlerAbsorbsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, _ := NewReporter(adsConfig(srv.URL), logger.Discard())
	bus := events.NewInMemoryBus(logger.Discard())
	r.Subscribe(bus)

	err := bus.PublishSync(context.Background(), events.LeadCaptured{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New()})
	if err != nil {
		t.Fatalf("reporting failures must not surface, got %v", err)
	}
}

func TestDisabledWithoutConversionID(t *testing.T) {
	r, err := NewReporter(&config.Config{}, logger.Discard())
	if err != nil || r != nil {
		t.Fatalf("expected disabled reporter, got %v %v", r, err)
	}
	// Subscribing a disabled reporter is a no-op.
	r.Subscribe(events.NewInMemoryBus(logger.Discard()))
}

func TestInvalidValueFailsStartup(t *testing.T) {
	cfg := adsConfig("http://unused")
	cfg.AdsConversionValue = "uno"
	if _, err := NewReporter(cfg, logger.Discard()); err == nil {
		t.Fatal("expected invalid conversion value to fail")
	}
}
