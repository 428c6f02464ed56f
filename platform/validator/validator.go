// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the shared custom rules registered:
//
//	mindigits=N  at least N decimal digits once everything else is dropped
//	trimmin=N    at least N characters after trimming surrounding whitespace
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("mindigits", minDigits)
	_ = v.RegisterValidation("trimmin", trimMin)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// FieldErrors unpacks a Struct error into per-field failures, or nil.
func FieldErrors(err error) validator.ValidationErrors {
	if errs, ok := err.(validator.ValidationErrors); ok {
		return errs
	}
	return nil
}

func minDigits(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	count := 0
	for _, r := range fl.Field().String() {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count >= n
}

func trimMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}
