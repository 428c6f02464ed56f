// Package admin provides the session-gated lead dashboard.
// This file defines the module that encapsulates admin setup and route registration.
package admin

import (
	"net/http"

	"nowas_backend/internal/admin/handler"
	"nowas_backend/internal/admin/service"
	"nowas_backend/internal/exports"
	apphttp "nowas_backend/internal/http"
	"nowas_backend/platform/config"
	"nowas_backend/platform/httpkit"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/session"

	"github.com/gin-gonic/gin"
)

// Module is the admin bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	service      *service.Service
	codec        *session.CookieCodec
	csrf         gin.HandlerFunc
	loginLimiter *httpkit.LoginRateLimiter
	downloads    *exports.Handler
}

// NewModule wires the admin login, dashboard and status updates. downloads
// may be nil, which leaves the CSV exports unmounted.
func NewModule(store session.Store, leads handler.LeadManager, downloads *exports.Handler, cfg config.AdminConfig, log *logger.Logger) *Module {
	secure := cfg.IsProduction()
	svc := service.New(store, cfg, log)
	codec := session.NewCookieCodec(cfg.GetSessionSecret(), secure)
	h := handler.New(svc, leads, codec, log)

	return &Module{
		handler:      h,
		service:      svc,
		codec:        codec,
		csrf:         httpkit.CSRF(cfg.GetCSRFKey(), secure),
		loginLimiter: httpkit.NewLoginRateLimiter(log, h.LoginRejected),
		downloads:    downloads,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "admin"
}

// LoginLimiter is exposed so housekeeping can bound its memory.
func (m *Module) LoginLimiter() *httpkit.LoginRateLimiter {
	return m.loginLimiter
}

// RegisterRoutes mounts the admin pages. Every route is CSRF-protected;
// all but login and logout also require a session.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Engine.Group("/admin", m.csrf)
	group.GET("", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, handler.PathDashboard) })
	group.GET("/login", m.handler.LoginPage)
	group.POST("/login", m.loginLimiter.RateLimit(), m.handler.Login)
	group.GET("/logout", m.handler.Logout)

	gated := group.Group("", RequireAdmin(m.service, m.codec))
	gated.GET("/dashboard", m.handler.Dashboard)
	gated.POST("/leads/:id/status", m.handler.UpdateStatus)
	if m.downloads != nil {
		m.downloads.RegisterRoutes(gated.Group("/exports"))
	}
}
