// Package exports serves the admin CSV downloads: the raw lead list and an
// offline conversion file for the ads platform.
package exports

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nowas_backend/internal/leads/domain"
	"nowas_backend/internal/leads/transport"
	"nowas_backend/platform/config"
	"nowas_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultConversionName = "Demo_Converted"
	defaultTimezone       = "Europe/Madrid"
	dateLayout            = "2006-01-02"
	conversionTimeLayout  = "2006-01-02 15:04:05-0700"
)

// LeadLister reads every stored lead.
type LeadLister interface {
	List(ctx context.Context) ([]domain.Lead, error)
}

// Handler handles export requests.
type Handler struct {
	leads    LeadLister
	value    decimal.Decimal
	currency string
	now      func() time.Time
}

// NewHandler creates the export handler. Conversion value and currency come
// from the ads settings so uploads match what the live tag reports.
func NewHandler(leads LeadLister, cfg config.AdsConfig) (*Handler, error) {
	value, err := decimal.NewFromString(cfg.GetAdsConversionValue())
	if err != nil {
		return nil, fmt.Errorf("ADS_CONVERSION_VALUE: %w", err)
	}
	return &Handler{
		leads:    leads,
		value:    value,
		currency: strings.ToUpper(cfg.GetAdsConversionCurrency()),
		now:      time.Now,
	}, nil
}

// RegisterRoutes mounts the downloads on an already gated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads.csv", h.ExportLeadsCSV)
	rg.GET("/conversions.csv", h.ExportConversionsCSV)
}

// ExportLeadsCSV writes every lead with the same columns as the sheet.
func (h *Handler) ExportLeadsCSV(c *gin.Context) {
	leads, err := h.leads.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	writer := startCsvResponse(c, "leads.csv")
	_ = writer.Write([]string{"ID", "Fecha", "Nombre", "Teléfono", "Email", "Nota", "Estado"})
	for _, lead := range leads {
		row := transport.NewLeadRow(lead, transport.DisplayLocation)
		if err := writer.Write([]string{row.ID, row.Date, row.Name, row.Phone, row.Email, row.Note, row.StatusLabel}); err != nil {
			return
		}
	}
	writer.Flush()
}

// ExportConversionsCSV writes converted leads in the offline conversion
// import format with hashed contact details. There is no click id, so
// matching relies on the hashed email and phone.
func (h *Handler) ExportConversionsCSV(c *gin.Context) {
	fromDate, toDate, err := parseDateRange(c, h.now())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Rango de fechas no válido")
		return
	}

	tzName := strings.TrimSpace(c.DefaultQuery("timezone", defaultTimezone))
	location, err := time.LoadLocation(tzName)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Zona horaria no válida")
		return
	}

	conversionName := strings.TrimSpace(c.DefaultQuery("conversionName", defaultConversionName))

	leads, err := h.leads.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	writer := startCsvResponse(c, "google-ads-conversions.csv")
	_ = writer.Write([]string{fmt.Sprintf("Parameters:TimeZone=%s", tzName)})
	_ = writer.Write(csvHeaders())

	for _, lead := range leads {
		if lead.Status != domain.StatusConverted {
			continue
		}
		if lead.SubmittedAt.Before(fromDate) || lead.SubmittedAt.After(toDate) {
			continue
		}
		row := conversionRow{
			HashedEmail:        hashEmail(lead.Email),
			HashedPhone:        hashPhone(lead.Phone),
			ConversionName:     conversionName,
			ConversionTime:     lead.SubmittedAt.In(location),
			ConversionValue:    h.value,
			ConversionCurrency: h.currency,
			OrderID:            lead.ID.String(),
		}
		if err := writer.Write(row.CSV()); err != nil {
			return
		}
	}
	writer.Flush()
}

// ---- Helpers ----

type conversionRow struct {
	HashedEmail        string
	HashedPhone        string
	ConversionName     string
	ConversionTime     time.Time
	ConversionValue    decimal.Decimal
	ConversionCurrency string
	OrderID            string
}

func (r conversionRow) CSV() []string {
	return []string{
		r.HashedEmail,
		r.HashedPhone,
		r.ConversionName,
		r.ConversionTime.Format(conversionTimeLayout),
		r.ConversionValue.StringFixed(2),
		r.ConversionCurrency,
		r.OrderID,
	}
}

func csvHeaders() []string {
	return []string{
		"Email",
		"Phone Number",
		"Conversion Name",
		"Conversion Time",
		"Conversion Value",
		"Conversion Currency",
		"Order ID",
	}
}

func startCsvResponse(c *gin.Context, filename string) *csv.Writer {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	return csv.NewWriter(c.Writer)
}

// parseDateRange defaults to the last 90 days. toDate is inclusive.
func parseDateRange(c *gin.Context, now time.Time) (time.Time, time.Time, error) {
	from := now.AddDate(0, 0, -90)
	to := now

	if fromStr := strings.TrimSpace(c.Query("fromDate")); fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if toStr := strings.TrimSpace(c.Query("toDate")); toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.Add(24*time.Hour - time.Second)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("toDate before fromDate")
	}
	return from, to, nil
}
