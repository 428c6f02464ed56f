// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"nowas_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// Result is the envelope every JSON endpoint of the intake API returns.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends {ok:false,error:message} with the given status code.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Result{OK: false, Error: message})
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values use their Kind for the status code; server-side
// kinds and untyped errors are reported with the generic message only.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		Error(c, domainErr.HTTPStatus(), domainErr.PublicMessage())
		return true
	}

	Error(c, http.StatusInternalServerError, apperr.GenericMessage)
	return true
}
