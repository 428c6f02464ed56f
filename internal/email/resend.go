package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"nowas_backend/platform/apperr"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends notifications through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	to     string
}

// NewResendSender creates a sender using apiKey. baseURL overrides the API
// host when non-empty.
func NewResendSender(apiKey, from, to, baseURL string) (*ResendSender, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client, from: from, to: to}, nil
}

func (s *ResendSender) SendLeadNotification(ctx context.Context, n LeadNotification) error {
	content, err := ComposeLeadNotification(n)
	if err != nil {
		return apperr.DeliveryFailed("email.resend", err)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{s.to},
		Subject: content.Subject,
		Html:    content.HTML,
		Text:    content.Text,
	}
	if n.Email != "" {
		params.ReplyTo = n.Email
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return apperr.DeliveryFailed("email.resend", fmt.Errorf("resend send failed: %w", err))
	}
	return nil
}
