package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apphttp "nowas_backend/internal/http"
	"nowas_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type stubConfig struct {
	static string
}

func (s stubConfig) GetHTTPAddr() string      { return ":0" }
func (s stubConfig) GetStaticDir() string     { return s.static }
func (s stubConfig) GetCORSOrigins() []string { return []string{"*"} }
func (s stubConfig) IsProduction() bool       { return false }

type stubHealth struct{ err error }

func (s stubHealth) Ping(context.Context) error { return s.err }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.API.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	ctx.Engine.POST("/limited", ctx.IntakeRateLimit, func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func newEngine(t *testing.T, health apphttp.HealthChecker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>NOWAS</h1>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	return New(&apphttp.App{
		Config:  stubConfig{static: dir},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{pingModule{}},
	})
}

func do(engine http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newEngine(t, stubHealth{}), http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(newEngine(t, stubHealth{err: errors.New("sheet gone")}), http.MethodGet, "/api/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the store is down, got %d", rec.Code)
	}
}

func TestStaticFilesAndModules(t *testing.T) {
	engine := newEngine(t, stubHealth{})

	if rec := do(engine, http.MethodGet, "/"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "NOWAS") {
		t.Fatalf("expected landing page, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(engine, http.MethodGet, "/app.css"); rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Fatalf("expected static asset, got %d", rec.Code)
	}
	if rec := do(engine, http.MethodGet, "/api/ping"); rec.Body.String() != "pong" {
		t.Fatalf("module route not registered: %d", rec.Code)
	}
	if rec := do(engine, http.MethodPost, "/limited"); rec.Code != http.StatusNoContent {
		t.Fatalf("intake limit placeholder must pass through, got %d", rec.Code)
	}
	if rec := do(engine, http.MethodPost, "/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown POST, got %d", rec.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	rec := do(newEngine(t, stubHealth{}), http.MethodGet, "/api/health")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing security headers")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id")
	}
}
