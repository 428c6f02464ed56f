// Package domain holds the lead model and the rules a submission must pass
// before it is stored.
package domain

import (
	"time"

	"nowas_backend/platform/apperr"
	"nowas_backend/platform/sanitize"
	"nowas_backend/platform/validator"

	"github.com/google/uuid"
)

// Status is where a lead sits in the gym's follow-up.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusConverted Status = "CONVERTED"
	StatusLost      Status = "LOST"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusNew, StatusContacted, StatusConverted, StatusLost}

var statusLabels = map[Status]string{
	StatusNew:       "Nuevo",
	StatusContacted: "Contactado",
	StatusConverted: "Convertido",
	StatusLost:      "Perdido",
}

// ParseStatus accepts the stored form of a status. An empty value reads as
// NEW so rows written before the status column existed stay usable.
func ParseStatus(raw string) (Status, bool) {
	if raw == "" {
		return StatusNew, true
	}
	s := Status(raw)
	_, ok := statusLabels[s]
	return s, ok
}

// Label is the Spanish name shown on the dashboard.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Lead is one demo request from the landing page.
type Lead struct {
	ID          uuid.UUID
	Name        string
	Phone       string
	Email       string
	Note        string
	SubmittedAt time.Time
	Status      Status
}

// NewLead builds a NEW lead from raw form input. Markup is stripped from
// every field.
func NewLead(name, phone, email, note string, now time.Time) Lead {
	return Lead{
		ID:          uuid.New(),
		Name:        sanitize.Line(name),
		Phone:       sanitize.Line(phone),
		Email:       sanitize.Line(email),
		Note:        sanitize.Text(note),
		SubmittedAt: now,
		Status:      StatusNew,
	}
}

// leadRules is declared in the order checks are reported.
type leadRules struct {
	Name  string `validate:"trimmin=2"`
	Phone string `validate:"mindigits=8"`
	Email string `validate:"contains=@"`
}

var ruleMessages = map[string]string{
	"Name":  "El nombre debe tener al menos 2 caracteres",
	"Phone": "El teléfono debe tener al menos 8 dígitos",
	"Email": "El email no es válido",
}

// Validate reports the first rule the lead breaks as a validation error
// whose message is safe to show to the visitor.
func Validate(v *validator.Validator, l Lead) error {
	err := v.Struct(leadRules{Name: l.Name, Phone: l.Phone, Email: l.Email})
	if err == nil {
		return nil
	}

	fieldErrs := validator.FieldErrors(err)
	if len(fieldErrs) == 0 {
		return apperr.Internal("validate lead", err)
	}
	msg, ok := ruleMessages[fieldErrs[0].Field()]
	if !ok {
		msg = "Datos no válidos"
	}
	return apperr.Validation(msg)
}
