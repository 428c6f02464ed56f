// Package service holds the admin login and session checks.
package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"nowas_backend/platform/apperr"
	"nowas_backend/platform/config"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/session"

	"golang.org/x/crypto/bcrypt"
)

const msgBadCredentials = "Contraseña incorrecta"

// Service authenticates the single admin user against the configured secret.
type Service struct {
	store session.Store
	cfg   config.AdminConfig
	log   *logger.Logger
}

// New creates the admin service.
func New(store session.Store, cfg config.AdminConfig, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, log: log}
}

// Login checks password and opens an authenticated session on success.
func (s *Service) Login(ctx context.Context, password, clientIP string) (session.Session, error) {
	if !s.passwordMatches(password) {
		s.log.AuthEvent("admin_login", clientIP, false, "bad_password")
		return session.Session{}, apperr.Unauthorized(msgBadCredentials)
	}

	sess, err := s.store.Create(ctx, s.cfg.GetSessionTTL())
	if err != nil {
		return session.Session{}, apperr.Internal("could not create session", err)
	}
	s.log.AuthEvent("admin_login", clientIP, true, "")
	return sess, nil
}

// Logout deletes the server-side session. Unknown ids are not an error.
func (s *Service) Logout(ctx context.Context, id, clientIP string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Internal("could not delete session", err)
	}
	s.log.AuthEvent("admin_logout", clientIP, true, "")
	return nil
}

// Resolve returns the authenticated session behind id.
func (s *Service) Resolve(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{}, apperr.Unauthorized("session expired")
	}
	if err != nil {
		return session.Session{}, apperr.Internal("could not load session", err)
	}
	if !sess.Authenticated {
		return session.Session{}, apperr.Unauthorized("session not authenticated")
	}
	return sess, nil
}

// passwordMatches prefers a configured bcrypt hash over the plain secret.
func (s *Service) passwordMatches(password string) bool {
	if password == "" {
		return false
	}
	if hash := s.cfg.GetAdminPasswordHash(); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	want := s.cfg.GetAdminPassword()
	return want != "" && subtle.ConstantTimeCompare([]byte(password), []byte(want)) == 1
}
