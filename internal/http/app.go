// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"nowas_backend/platform/config"
	"nowas_backend/platform/httpkit"
	"nowas_backend/platform/logger"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP settings.
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is pinged by GET /api/health (the lead store).
	Health HealthChecker
	// IntakeLimiter guards POST /send-demo.
	IntakeLimiter *httpkit.FixedWindowLimiter
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
