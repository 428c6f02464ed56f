package httpkit

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFHeader is the header admin pages echo the token in and forms may
// submit it through.
const CSRFHeader = "X-CSRF-Token"

// CSRF adapts gorilla/csrf to gin. When secure is false the request is
// marked as plain HTTP so local development works without TLS.
func CSRF(authKey []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.RequestHeader(CSRFHeader),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Header(CSRFHeader, csrf.Token(r))
			c.Next()
		})

		protect(next).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// CSRFTemplateField returns the hidden input for the current request.
func CSRFTemplateField(c *gin.Context) template.HTML {
	return csrf.TemplateField(c.Request)
}
