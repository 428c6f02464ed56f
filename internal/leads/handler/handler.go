package handler

import (
	"net/http"

	"nowas_backend/internal/leads/service"
	"nowas_backend/internal/leads/transport"
	"nowas_backend/platform/apperr"
	"nowas_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "Solicitud no válida"

// ContactLinker builds the chat link returned after a successful submission.
type ContactLinker interface {
	ContactLink(name string) string
}

// Handler serves the public intake endpoint.
type Handler struct {
	svc   *service.Service
	links ContactLinker
}

// New creates the intake handler. links may be nil.
func New(svc *service.Service, links ContactLinker) *Handler {
	return &Handler{svc: svc, links: links}
}

// SubmitDemo handles POST /send-demo.
func (h *Handler) SubmitDemo(c *gin.Context) {
	var req transport.SubmitLeadRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	out, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		if !apperr.Is(err, apperr.KindValidation) {
			_ = c.Error(err)
		}
		httpkit.HandleError(c, err)
		return
	}

	resp := transport.SubmitLeadResponse{OK: true, Success: true}
	if h.links != nil {
		resp.WhatsApp = h.links.ContactLink(out.Lead.Name)
	}
	httpkit.JSON(c, http.StatusOK, resp)
}
