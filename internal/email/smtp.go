package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"nowas_backend/platform/apperr"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
// Defaults match a Gmail account with an app password.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	toEmail   string
	timeout   time.Duration
}

// NewSMTPSender creates a sender that logs in as username and delivers from
// fromEmail to toEmail.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName, toEmail string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
		toEmail:   toEmail,
		timeout:   15 * time.Second,
	}
}

func (s *SMTPSender) SendLeadNotification(ctx context.Context, n LeadNotification) error {
	content, err := ComposeLeadNotification(n)
	if err != nil {
		return apperr.DeliveryFailed("email.smtp", err)
	}
	if err := s.send(ctx, content); err != nil {
		return apperr.DeliveryFailed("email.smtp", err)
	}
	return nil
}

func (s *SMTPSender) send(ctx context.Context, content Message) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(content.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, content.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, content.HTML)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(s.timeout),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
