// Package whatsapp forwards new leads over WhatsApp through the Twilio
// Messages API.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nowas_backend/platform/apperr"
	"nowas_backend/platform/config"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/phone"
)

// LeadMessage is the content forwarded for a lead.
type LeadMessage struct {
	Name  string
	Phone string
	Email string
	Note  string
}

// Text renders the fixed message format.
func (m LeadMessage) Text() string {
	note := m.Note
	if note == "" {
		note = "-"
	}
	return fmt.Sprintf("Nueva solicitud de demo\nNombre: %s\nTeléfono: %s\nEmail: %s\nNota: %s",
		m.Name, phone.Display(m.Phone), m.Email, note)
}

type Client struct {
	baseURL        string
	accountSID     string
	authToken      string
	mode           Mode
	sandboxFrom    string
	productionFrom string
	adminTo        string
	countryCode    string
	http           *http.Client
	log            *logger.Logger
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient builds a client from configuration. The mode is parsed once
// here; an unknown value is a startup error.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) (*Client, error) {
	mode, err := ParseMode(cfg.GetWhatsAppMode())
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.GetTwilioAPIURL(), "/"),
		accountSID:     cfg.GetTwilioAccountSID(),
		authToken:      cfg.GetTwilioAuthToken(),
		mode:           mode,
		sandboxFrom:    cfg.GetWhatsAppSandboxFrom(),
		productionFrom: cfg.GetWhatsAppProductionFrom(),
		adminTo:        cfg.GetWhatsAppAdminTo(),
		countryCode:    cfg.GetWhatsAppCountryCode(),
		http:           &http.Client{Timeout: 10 * time.Second},
		log:            log,
	}, nil
}

// Mode reports the routing mode the client was built with.
func (c *Client) Mode() Mode {
	return c.mode
}

// Route returns the sender and recipient numbers, without the whatsapp:
// scheme, for a lead phone number.
func (c *Client) Route(leadPhone string) (from, to string) {
	if c.mode == ModeProduction {
		return "+" + phone.DigitsOnly(c.productionFrom), "+" + phone.NormalizeForCountry(leadPhone, c.countryCode)
	}
	return "+" + phone.DigitsOnly(c.sandboxFrom), "+" + phone.NormalizeForCountry(c.adminTo, c.countryCode)
}

// SendLeadMessage forwards the lead. Transport failures and Twilio error
// responses are returned as apperr.KindDeliveryFailed.
func (c *Client) SendLeadMessage(ctx context.Context, msg LeadMessage) error {
	from, to := c.Route(msg.Phone)
	if err := c.send(ctx, from, to, msg.Text()); err != nil {
		return apperr.DeliveryFailed("whatsapp.send", err)
	}
	c.log.WithContext(ctx).Info("whatsapp sent via twilio", "mode", c.mode.String(), "to", to)
	return nil
}

// ContactLink is the wa.me link visitors can open to chat with the gym.
// Empty when no production number is configured.
func (c *Client) ContactLink(name string) string {
	digits := phone.DigitsOnly(c.productionFrom)
	if digits == "" {
		return ""
	}
	text := "Hola, soy " + name + " y acabo de solicitar una demo."
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(text)
}

func (c *Client) send(ctx context.Context, from, to, body string) error {
	form := url.Values{}
	form.Set("From", "whatsapp:"+from)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var tErr twilioError
		if json.Unmarshal(data, &tErr) == nil && tErr.Message != "" {
			return fmt.Errorf("twilio returned %d (code %d): %s", resp.StatusCode, tErr.Code, tErr.Message)
		}
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}
