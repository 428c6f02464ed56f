package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the admin session cookie.
const CookieName = "nowas_admin"

var errInvalidCookie = errors.New("invalid session cookie")

// CookieCodec signs session ids into the cookie value so a forged id is
// rejected before any store lookup.
type CookieCodec struct {
	secret []byte
	secure bool
}

// NewCookieCodec signs with secret. secure sets the Secure attribute.
func NewCookieCodec(secret string, secure bool) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), secure: secure}
}

// Encode returns the signed cookie value for s.
func (c *CookieCodec) Encode(s Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   s.ID,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies value and returns the session id it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidCookie
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errInvalidCookie
	}
	return claims.Subject, nil
}

// Set writes the cookie for s.
func (c *CookieCodec) Set(w http.ResponseWriter, s Session) error {
	value, err := c.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
	return nil
}

// Clear expires the cookie on the client.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/admin",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// Read returns the session id from the request cookie, if it verifies.
func (c *CookieCodec) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, err := c.Decode(cookie.Value)
	if err != nil {
		return "", false
	}
	return id, true
}
