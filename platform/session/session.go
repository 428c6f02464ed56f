// Package session provides server-side admin sessions and the signed cookie
// that points at them.
// This is part of the platform layer and contains no business logic.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state behind an admin cookie.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Implementations must treat expired sessions as
// missing.
type Store interface {
	Create(ctx context.Context, ttl time.Duration) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

func newSession(ttl time.Duration, now time.Time) (Session, error) {
	id, err := generateID()
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:            id,
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}, nil
}

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
