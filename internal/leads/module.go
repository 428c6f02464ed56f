// Package leads provides the lead intake bounded context module.
// This file defines the module that encapsulates intake setup and route registration.
package leads

import (
	apphttp "nowas_backend/internal/http"
	"nowas_backend/internal/leads/handler"
	"nowas_backend/internal/leads/service"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the leads module around an already wired service.
func NewModule(svc *service.Service, links handler.ContactLinker) *Module {
	return &Module{
		handler: handler.New(svc, links),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the intake service to other modules (the admin dashboard).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the public intake endpoint behind the intake limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/send-demo", ctx.IntakeRateLimit, m.handler.SubmitDemo)
}
