// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"nowas_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCaptured is published once a lead has been stored, emailed and
// messaged.
type LeadCaptured struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	Name        string    `json:"name"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }
