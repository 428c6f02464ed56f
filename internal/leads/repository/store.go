// Package repository persists leads. Every backend keeps insertion order and
// only ever rewrites a lead to change its status.
package repository

import (
	"context"

	"nowas_backend/internal/leads/domain"
	"nowas_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store is the lead persistence port used by the intake pipeline and the
// admin dashboard.
type Store interface {
	// Append adds the lead as a new row and returns it as stored.
	Append(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	// List returns every lead in insertion order.
	List(ctx context.Context) ([]domain.Lead, error)
	// UpdateStatus rewrites the lead identified by id with a new status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Backend names the implementation for logs.
	Backend() string
}

func errLeadNotFound(id uuid.UUID) error {
	return apperr.NotFound("lead " + id.String() + " not found").WithOp("UpdateStatus")
}
