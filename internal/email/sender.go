// Package email delivers the internal notification sent for every new lead.
package email

import (
	"context"
	"time"

	"nowas_backend/platform/apperr"
	"nowas_backend/platform/logger"
)

// LeadNotification is what the gym staff needs to call a lead back.
type LeadNotification struct {
	Name        string
	Phone       string
	Email       string
	Note        string
	SubmittedAt time.Time
}

// Sender delivers lead notifications. Transport failures are returned as
// apperr.KindDeliveryFailed.
type Sender interface {
	SendLeadNotification(ctx context.Context, n LeadNotification) error
}

// NoopSender logs instead of sending. Only allowed outside production.
type NoopSender struct {
	Log *logger.Logger
}

func (s NoopSender) SendLeadNotification(ctx context.Context, n LeadNotification) error {
	msg, err := ComposeLeadNotification(n)
	if err != nil {
		return apperr.DeliveryFailed("email.noop", err)
	}
	if s.Log != nil {
		s.Log.WithContext(ctx).Info("email not sent (noop provider)", "subject", msg.Subject)
	}
	return nil
}
