package transport

import (
	"time"

	"nowas_backend/internal/leads/domain"
	"nowas_backend/platform/phone"
)

// Request DTOs

// SubmitLeadRequest is the landing page form. JSON and form-encoded bodies
// bind to the same fields.
type SubmitLeadRequest struct {
	Name  string `json:"name" form:"name"`
	Phone string `json:"phone" form:"phone"`
	Email string `json:"email" form:"email"`
	Note  string `json:"note" form:"note"`
}

// UpdateStatusRequest is the dashboard status form.
type UpdateStatusRequest struct {
	Status string `form:"status" json:"status"`
}

// Response DTOs

// SubmitLeadResponse is returned on success. Success mirrors OK for the
// landing page script, and WhatsApp is a chat link when one is configured.
type SubmitLeadResponse struct {
	OK       bool   `json:"ok"`
	Success  bool   `json:"success"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// LeadRow is one dashboard table row.
type LeadRow struct {
	ID          string
	Date        string
	Name        string
	Phone       string
	Email       string
	Note        string
	Status      string
	StatusLabel string
}

// DisplayLocation is the gym's local time zone. Falls back to UTC if tzdata
// is missing.
var DisplayLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// NewLeadRow formats a lead for display in loc.
func NewLeadRow(l domain.Lead, loc *time.Location) LeadRow {
	date := ""
	if !l.SubmittedAt.IsZero() {
		date = l.SubmittedAt.In(loc).Format("02/01/2006 15:04")
	}
	return LeadRow{
		ID:          l.ID.String(),
		Date:        date,
		Name:        l.Name,
		Phone:       phone.Display(l.Phone),
		Email:       l.Email,
		Note:        l.Note,
		Status:      string(l.Status),
		StatusLabel: l.Status.Label(),
	}
}
