package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"nowas_backend/internal/admin/service"
	"nowas_backend/internal/admin/templates"
	"nowas_backend/internal/leads/domain"
	"nowas_backend/internal/leads/transport"
	"nowas_backend/platform/apperr"
	"nowas_backend/platform/httpkit"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/session"

	"github.com/gin-gonic/gin"
)

const (
	PathLogin     = "/admin/login"
	PathDashboard = "/admin/dashboard"

	msgTooManyAttempts = "Demasiados intentos. Inténtalo de nuevo en un minuto."
)

// LeadManager is what the dashboard needs from the intake service.
type LeadManager interface {
	List(ctx context.Context) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, rawID string, req transport.UpdateStatusRequest) (domain.Lead, error)
}

// Handler serves the admin pages.
type Handler struct {
	svc   *service.Service
	leads LeadManager
	codec *session.CookieCodec
	log   *logger.Logger
}

// New creates the admin handler.
func New(svc *service.Service, leads LeadManager, codec *session.CookieCodec, log *logger.Logger) *Handler {
	return &Handler{svc: svc, leads: leads, codec: codec, log: log}
}

// LoginPage shows the password form, or the dashboard when already signed in.
func (h *Handler) LoginPage(c *gin.Context) {
	if id, ok := h.codec.Read(c.Request); ok {
		if _, err := h.svc.Resolve(c.Request.Context(), id); err == nil {
			c.Redirect(http.StatusSeeOther, PathDashboard)
			return
		}
	}
	h.renderLogin(c, http.StatusOK, "")
}

// Login checks the password and sets the session cookie.
func (h *Handler) Login(c *gin.Context) {
	sess, err := h.svc.Login(c.Request.Context(), c.PostForm("password"), c.ClientIP())
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindUnauthorized {
			h.renderLogin(c, http.StatusUnauthorized, appErr.Message)
			return
		}
		_ = c.Error(err)
		h.renderLogin(c, http.StatusInternalServerError, apperr.GenericMessage)
		return
	}

	if err := h.codec.Set(c.Writer, sess); err != nil {
		_ = c.Error(err)
		h.renderLogin(c, http.StatusInternalServerError, apperr.GenericMessage)
		return
	}
	c.Redirect(http.StatusSeeOther, PathDashboard)
}

// LoginRejected renders the form when the login limiter trips.
func (h *Handler) LoginRejected(c *gin.Context) {
	h.renderLogin(c, http.StatusTooManyRequests, msgTooManyAttempts)
}

// Logout revokes the server-side session and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if id, ok := h.codec.Read(c.Request); ok {
		if err := h.svc.Logout(c.Request.Context(), id, c.ClientIP()); err != nil {
			_ = c.Error(err)
		}
	}
	h.codec.Clear(c.Writer)
	c.Redirect(http.StatusSeeOther, PathLogin)
}

// Dashboard lists every stored lead.
func (h *Handler) Dashboard(c *gin.Context) {
	leads, err := h.leads.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	rows := make([]transport.LeadRow, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, transport.NewLeadRow(lead, transport.DisplayLocation))
	}

	options := make([]templates.StatusOption, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		options = append(options, templates.StatusOption{Value: string(s), Label: s.Label()})
	}

	h.render(c, http.StatusOK, func(buf *bytes.Buffer) error {
		return templates.Dashboard(buf, templates.DashboardData{
			Leads:     rows,
			Statuses:  options,
			CSRFField: httpkit.CSRFTemplateField(c),
		})
	})
}

// UpdateStatus changes one lead's status and returns to the dashboard.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderError(c, apperr.BadRequest("Solicitud no válida"))
		return
	}

	if _, err := h.leads.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, PathDashboard)
}

func (h *Handler) renderLogin(c *gin.Context, status int, message string) {
	h.render(c, status, func(buf *bytes.Buffer) error {
		return templates.Login(buf, templates.LoginData{
			Error:     message,
			CSRFField: httpkit.CSRFTemplateField(c),
		})
	})
}

// render buffers the page so a template error never leaves half a page.
func (h *Handler) render(c *gin.Context, status int, execute func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := execute(&buf); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, apperr.GenericMessage)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("unexpected error", err)
	}
	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.String(appErr.HTTPStatus(), appErr.PublicMessage())
}
