// Package service runs lead intake and the admin operations on stored leads.
package service

import (
	"context"
	"errors"
	"time"

	"nowas_backend/internal/email"
	"nowas_backend/internal/events"
	"nowas_backend/internal/leads/domain"
	"nowas_backend/internal/leads/repository"
	"nowas_backend/internal/leads/transport"
	"nowas_backend/internal/whatsapp"
	"nowas_backend/platform/apperr"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/validator"

	"github.com/google/uuid"
)

// Notifier emails the gym about a new lead.
type Notifier interface {
	SendLeadNotification(ctx context.Context, n email.LeadNotification) error
}

// Messenger forwards a new lead over WhatsApp.
type Messenger interface {
	SendLeadMessage(ctx context.Context, msg whatsapp.LeadMessage) error
}

// Outcome records how far a submission got.
type Outcome struct {
	// Stage is the last stage reached: COMPLETE on success, ERROR otherwise.
	Stage domain.Stage
	// FailedAt is the stage whose outgoing step failed. Empty on success.
	FailedAt domain.Stage
	Lead     domain.Lead
}

// Service runs the intake pipeline.
type Service struct {
	store     repository.Store
	notifier  Notifier
	messenger Messenger
	bus       events.Bus
	val       *validator.Validator
	log       *logger.Logger
	now       func() time.Time
}

// New wires the pipeline collaborators.
func New(store repository.Store, notifier Notifier, messenger Messenger, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		notifier:  notifier,
		messenger: messenger,
		bus:       bus,
		val:       val,
		log:       log,
		now:       time.Now,
	}
}

// Submit validates, stores, emails and messages a lead, then publishes
// LeadCaptured for conversion reporting. Stages run strictly in order and the
// first failure aborts the rest. Validation errors keep their message; every
// other failure is an apperr whose public message is generic.
func (s *Service) Submit(ctx context.Context, req transport.SubmitLeadRequest) (Outcome, error) {
	lead := domain.NewLead(req.Name, req.Phone, req.Email, req.Note, s.now())
	ctx = context.WithValue(ctx, logger.LeadIDKey, lead.ID.String())
	log := s.log.WithContext(ctx)

	out := Outcome{Stage: domain.StageReceived, Lead: lead}

	steps := []func(context.Context) error{
		// RECEIVED -> VALIDATED
		func(context.Context) error {
			return domain.Validate(s.val, out.Lead)
		},
		// VALIDATED -> STORED
		func(ctx context.Context) error {
			stored, err := s.store.Append(ctx, out.Lead)
			if err != nil {
				log.StoreError(s.store.Backend(), "Append", err)
				return err
			}
			out.Lead = stored
			return nil
		},
		// STORED -> NOTIFIED
		func(ctx context.Context) error {
			err := s.notifier.SendLeadNotification(ctx, email.LeadNotification{
				Name:        out.Lead.Name,
				Phone:       out.Lead.Phone,
				Email:       out.Lead.Email,
				Note:        out.Lead.Note,
				SubmittedAt: out.Lead.SubmittedAt,
			})
			if err != nil {
				log.DeliveryError("email", err)
			}
			return err
		},
		// NOTIFIED -> MESSAGED
		func(ctx context.Context) error {
			err := s.messenger.SendLeadMessage(ctx, whatsapp.LeadMessage{
				Name:  out.Lead.Name,
				Phone: out.Lead.Phone,
				Email: out.Lead.Email,
				Note:  out.Lead.Note,
			})
			if err != nil {
				log.DeliveryError("whatsapp", err)
			}
			return err
		},
		// MESSAGED -> REPORTED. Fire and forget.
		func(ctx context.Context) error {
			s.bus.Publish(ctx, events.LeadCaptured{
				BaseEvent:   events.NewBaseEvent(),
				LeadID:      out.Lead.ID,
				Name:        out.Lead.Name,
				SubmittedAt: out.Lead.SubmittedAt,
			})
			return nil
		},
		// REPORTED -> COMPLETE
		func(context.Context) error { return nil },
	}

	for _, step := range steps {
		if err := step(ctx); err != nil && out.Stage.CanFail() {
			out.FailedAt = out.Stage
			out.Stage = domain.StageError
			log.PipelineStage(lead.ID.String(), string(out.FailedAt), err)
			return out, asAppError(err)
		}
		out.Stage = out.Stage.Next()
	}

	log.PipelineStage(lead.ID.String(), string(out.Stage), nil)
	return out, nil
}

// List returns every stored lead in insertion order.
func (s *Service) List(ctx context.Context) ([]domain.Lead, error) {
	leads, err := s.store.List(ctx)
	if err != nil {
		s.log.WithContext(ctx).StoreError(s.store.Backend(), "List", err)
		return nil, asAppError(err)
	}
	return leads, nil
}

// UpdateStatus moves the lead with the given id to a new status.
func (s *Service) UpdateStatus(ctx context.Context, rawID string, req transport.UpdateStatusRequest) (domain.Lead, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	status, ok := domain.ParseStatus(req.Status)
	if !ok || req.Status == "" {
		return domain.Lead{}, apperr.Validation("Estado no válido")
	}

	lead, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			s.log.WithContext(ctx).StoreError(s.store.Backend(), "UpdateStatus", err)
		}
		return domain.Lead{}, asAppError(err)
	}

	s.log.WithContext(ctx).Info("lead status updated", "lead_id", id.String(), "status", string(status))
	return lead, nil
}

func asAppError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal("unexpected failure", err)
}
