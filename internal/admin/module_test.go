package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"nowas_backend/internal/exports"
	apphttp "nowas_backend/internal/http"
	"nowas_backend/internal/leads/domain"
	"nowas_backend/internal/leads/transport"
	"nowas_backend/platform/apperr"
	"nowas_backend/platform/httpkit"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubAdminConfig struct {
	password string
	hash     string
}

func (s stubAdminConfig) GetAdminPassword() string     { return s.password }
func (s stubAdminConfig) GetAdminPasswordHash() string { return s.hash }
func (s stubAdminConfig) GetSessionSecret() string     { return "session-secret-for-tests" }
func (s stubAdminConfig) GetSessionTTL() time.Duration { return time.Hour }
func (s stubAdminConfig) GetCSRFKey() []byte           { return []byte("0123456789abcdef0123456789abcdef") }
func (s stubAdminConfig) IsProduction() bool           { return false }

type stubAds struct{}

func (stubAds) GetAdsConversionID() string       { return "" }
func (stubAds) GetAdsConversionLabel() string    { return "" }
func (stubAds) GetAdsConversionValue() string    { return "1.0" }
func (stubAds) GetAdsConversionCurrency() string { return "EUR" }
func (stubAds) GetAdsEndpoint() string           { return "" }
func (stubAds) IsAdsEnabled() bool               { return false }

type fakeLeads struct {
	mu      sync.Mutex
	leads   []domain.Lead
	updates map[string]string
}

func (f *fakeLeads) List(context.Context) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Lead(nil), f.leads...), nil
}

func (f *fakeLeads) UpdateStatus(_ context.Context, rawID string, req transport.UpdateStatusRequest) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := domain.ParseStatus(req.Status)
	if !ok || req.Status == "" {
		return domain.Lead{}, apperr.Validation("Estado no válido")
	}
	for i := range f.leads {
		if f.leads[i].ID.String() == rawID {
			f.leads[i].Status = status
			f.updates[rawID] = req.Status
			return f.leads[i], nil
		}
	}
	return domain.Lead{}, apperr.NotFound("lead not found")
}

// browser keeps cookies and the latest CSRF token between requests.
type browser struct {
	t       *testing.T
	engine  http.Handler
	cookies map[string]*http.Cookie
	token   string
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if b.token != "" {
		req.Header.Set(httpkit.CSRFHeader, b.token)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.engine.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	if token := rec.Header().Get(httpkit.CSRFHeader); token != "" {
		b.token = token
	}
	return rec
}

func setup(t *testing.T, cfg stubAdminConfig) (*browser, *fakeLeads) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	leads := &fakeLeads{
		leads: []domain.Lead{{
			ID:          uuid.New(),
			Name:        "Ana <b>García</b>",
			Phone:       "600000000",
			Email:       "ana@example.com",
			Note:        "tardes",
			Status:      domain.StatusNew,
			SubmittedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		}},
		updates: map[string]string{},
	}

	engine := gin.New()
	downloads, err := exports.NewHandler(leads, stubAds{})
	if err != nil {
		t.Fatal(err)
	}
	module := NewModule(session.NewMemoryStore(), leads, downloads, cfg, logger.Discard())
	module.RegisterRoutes(&apphttp.RouterContext{Engine: engine, API: engine.Group("/api")})

	return &browser{t: t, engine: engine, cookies: map[string]*http.Cookie{}}, leads
}

func login(t *testing.T, b *browser, password string) *httptest.ResponseRecorder {
	t.Helper()
	if rec := b.do(http.MethodGet, "/admin/login", nil); rec.Code != http.StatusOK {
		t.Fatalf("login page: %d", rec.Code)
	}
	return b.do(http.MethodPost, "/admin/login", url.Values{"password": {password}})
}

func TestDashboardRequiresLogin(t *testing.T) {
	b, _ := setup(t, stubAdminConfig{password: "s3cret"})

	rec := b.do(http.MethodGet, "/admin/dashboard", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/login" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestForgedCookieIsRejected(t *testing.T) {
	b, _ := setup(t, stubAdminConfig{password: "s3cret"})
	b.cookies[session.CookieName] = &http.Cookie{Name: session.CookieName, Value: "not-a-token"}

	if rec := b.do(http.MethodGet, "/admin/dashboard", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for forged cookie, got %d", rec.Code)
	}
}

func TestWrongPasswordRendersGenericFailure(t *testing.T) {
	b, _ := setup(t, stubAdminConfig{password: "s3cret"})

	rec := login(t, b, "guess")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Contraseña incorrecta") {
		t.Fatal("expected failure message on the login form")
	}
	if _, ok := b.cookies[session.CookieName]; ok {
		t.Fatal("no session cookie may be set on failure")
	}
}

func TestLoginDashboardStatusAndLogout(t *testing.T) {
	b, leads := setup(t, stubAdminConfig{password: "s3cret"})

	rec := login(t, b, "s3cret")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d", rec.Code)
	}

	rec = b.do(http.MethodGet, "/admin/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "Ana &lt;b&gt;García&lt;/b&gt;") {
		t.Fatal("lead name must be rendered escaped")
	}
	if !strings.Contains(page, "01/03/2024") || !strings.Contains(page, "csrf_token") {
		t.Fatal("expected formatted date and csrf field")
	}

	id := leads.leads[0].ID.String()
	rec = b.do(http.MethodPost, "/admin/leads/"+id+"/status", url.Values{"status": {"CONTACTED"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status update: %d %s", rec.Code, rec.Body.String())
	}
	if leads.updates[id] != "CONTACTED" {
		t.Fatal("status update did not reach the lead service")
	}

	rec = b.do(http.MethodPost, "/admin/leads/"+id+"/status", url.Values{"status": {"ARCHIVED"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	b.do(http.MethodGet, "/admin/logout", nil)
	if rec := b.do(http.MethodGet, "/admin/dashboard", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("logout must revoke access, got %d", rec.Code)
	}
}

func TestLogoutRevokesReplayedCookie(t *testing.T) {
	b, _ := setup(t, stubAdminConfig{password: "s3cret"})
	login(t, b, "s3cret")
	stolen := *b.cookies[session.CookieName]

	b.do(http.MethodGet, "/admin/logout", nil)
	b.cookies[session.CookieName] = &stolen

	if rec := b.do(http.MethodGet, "/admin/dashboard", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("a cookie from a deleted session must not pass, got %d", rec.Code)
	}
}

func TestExportsAreGated(t *testing.T) {
	b, _ := setup(t, stubAdminConfig{password: "s3cret"})

	if rec := b.do(http.MethodGet, "/admin/exports/leads.csv", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect without session, got %d", rec.Code)
	}

	login(t, b, "s3cret")
	rec := b.do(http.MethodGet, "/admin/exports/leads.csv", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ana@example.com") {
		t.Fatalf("expected csv download, got %d", rec.Code)
	}
}

func TestStatusUpdateRequiresCSRFToken(t *testing.T) {
	b, leads := setup(t, stubAdminConfig{password: "s3cret"})
	login(t, b, "s3cret")
	b.token = ""

	id := leads.leads[0].ID.String()
	rec := b.do(http.MethodPost, "/admin/leads/"+id+"/status", url.Values{"status": {"LOST"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", rec.Code)
	}
	if len(leads.updates) != 0 {
		t.Fatal("status must not change without a csrf token")
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	b, _ := setup(t, stubAdminConfig{password: "s3cret"})
	b.do(http.MethodGet, "/admin/login", nil)

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = b.do(http.MethodPost, "/admin/login", url.Values{"password": {"nope"}})
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last.Code)
	}
}
