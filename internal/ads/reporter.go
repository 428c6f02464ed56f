// Package ads pings the Google Ads conversion endpoint when a lead is
// captured. Reporting is best effort: failures are logged and dropped.
package ads

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nowas_backend/internal/events"
	"nowas_backend/platform/config"
	"nowas_backend/platform/logger"

	"github.com/shopspring/decimal"
)

const reportTimeout = 5 * time.Second

// ReportingError describes a failed conversion ping. It is only logged.
type ReportingError struct {
	LeadID string
	Err    error
}

func (e *ReportingError) Error() string {
	return fmt.Sprintf("ads conversion for lead %s: %v", e.LeadID, e.Err)
}

func (e *ReportingError) Unwrap() error { return e.Err }

// Reporter sends one conversion ping per captured lead.
type Reporter struct {
	endpoint     string
	conversionID string
	label        string
	value        decimal.Decimal
	currency     string
	http         *http.Client
	log          *logger.Logger
}

// NewReporter returns nil when no conversion id is configured, which
// disables reporting.
func NewReporter(cfg config.AdsConfig, log *logger.Logger) (*Reporter, error) {
	if !cfg.IsAdsEnabled() {
		return nil, nil
	}

	value, err := decimal.NewFromString(cfg.GetAdsConversionValue())
	if err != nil {
		return nil, fmt.Errorf("ADS_CONVERSION_VALUE %q: %w", cfg.GetAdsConversionValue(), err)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("ADS_CONVERSION_VALUE must not be negative")
	}

	return &Reporter{
		endpoint:     strings.TrimRight(cfg.GetAdsEndpoint(), "/"),
		conversionID: cfg.GetAdsConversionID(),
		label:        cfg.GetAdsConversionLabel(),
		value:        value,
		currency:     strings.ToUpper(cfg.GetAdsConversionCurrency()),
		http:         &http.Client{Timeout: reportTimeout},
		log:          log,
	}, nil
}

// Subscribe registers the reporter for LeadCaptured events. A nil reporter
// subscribes nothing.
func (r *Reporter) Subscribe(bus events.Bus) {
	if r == nil {
		return
	}
	bus.Subscribe(events.LeadCaptured{}.EventName(), events.HandlerFunc(r.handle))
}

func (r *Reporter) handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadCaptured)
	if !ok {
		return nil
	}

	if err := r.Report(ctx, e.LeadID.String()); err != nil {
		r.log.WithContext(ctx).Warn("ads conversion not reported", "error", err)
	}
	return nil
}

// Report issues the conversion ping for one lead and returns a
// *ReportingError on failure.
func (r *Reporter) Report(ctx context.Context, leadID string) error {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.conversionURL(leadID), nil)
	if err != nil {
		return &ReportingError{LeadID: leadID, Err: err}
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return &ReportingError{LeadID: leadID, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return &ReportingError{LeadID: leadID, Err: fmt.Errorf("endpoint returned %d", resp.StatusCode)}
	}

	r.log.WithContext(ctx).Debug("ads conversion reported", "lead_id", leadID)
	return nil
}

func (r *Reporter) conversionURL(leadID string) string {
	q := url.Values{}
	q.Set("label", r.label)
	q.Set("value", r.value.StringFixed(2))
	q.Set("currency_code", r.currency)
	q.Set("oid", leadID)
	q.Set("guid", "ON")
	q.Set("script", "0")
	return fmt.Sprintf("%s/%s/?%s", r.endpoint, url.PathEscape(r.conversionID), q.Encode())
}
