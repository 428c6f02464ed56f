// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lead store backends.
const (
	LeadStoreSheets   = "sheets"
	LeadStorePostgres = "postgres"
	LeadStoreSQLite   = "sqlite"
	LeadStoreMemory   = "memory"
)

// Email providers.
const (
	EmailProviderSMTP   = "smtp"
	EmailProviderResend = "resend"
	EmailProviderNoop   = "noop"
)

// Messaging modes as written in the environment.
const (
	MessagingModeSandbox    = "sandbox"
	MessagingModeProduction = "production"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetStaticDir() string
	GetCORSOrigins() []string
	IsProduction() bool
}

// SheetsConfig provides settings for the Google Sheets lead store.
type SheetsConfig interface {
	GetSpreadsheetID() string
	GetGoogleClientEmail() string
	GetGooglePrivateKey() string
	GetSheetsEndpoint() string
}

// DatabaseConfig provides SQL database connection settings.
type DatabaseConfig interface {
	GetLeadStore() string
	GetDatabaseURL() string
	GetSQLitePath() string
}

// EmailConfig provides settings for lead notification emails.
type EmailConfig interface {
	GetEmailProvider() string
	GetEmailUser() string
	GetEmailPass() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetNotifyEmailTo() string
	GetResendAPIKey() string
}

// WhatsAppConfig provides settings for the messaging channel.
type WhatsAppConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioAPIURL() string
	GetWhatsAppMode() string
	GetWhatsAppSandboxFrom() string
	GetWhatsAppProductionFrom() string
	GetWhatsAppAdminTo() string
	GetWhatsAppCountryCode() string
}

// AdsConfig provides settings for conversion reporting.
type AdsConfig interface {
	GetAdsConversionID() string
	GetAdsConversionLabel() string
	GetAdsConversionValue() string
	GetAdsConversionCurrency() string
	GetAdsEndpoint() string
	IsAdsEnabled() bool
}

// AdminConfig provides settings for the admin dashboard and its session.
type AdminConfig interface {
	GetAdminPassword() string
	GetAdminPasswordHash() string
	GetSessionSecret() string
	GetSessionTTL() time.Duration
	GetCSRFKey() []byte
	IsProduction() bool
}

// RateLimitConfig provides settings for the intake limiter.
type RateLimitConfig interface {
	GetRateLimitMax() int
	GetRateLimitWindow() time.Duration
	GetRateLimitMessage() string
}

// RedisConfig provides the optional shared Redis connection.
type RedisConfig interface {
	GetRedisURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env         string
	HTTPAddr    string
	StaticDir   string
	CORSOrigins []string

	LeadStore         string
	SpreadsheetID     string
	GoogleClientEmail string
	GooglePrivateKey  string
	SheetsEndpoint    string
	DatabaseURL       string
	SQLitePath        string

	EmailProvider string
	EmailUser     string
	EmailPass     string
	SMTPHost      string
	SMTPPort      int
	NotifyEmailTo string
	ResendAPIKey  string

	TwilioAccountSID       string
	TwilioAuthToken        string
	TwilioAPIURL           string
	WhatsAppMode           string
	WhatsAppSandboxFrom    string
	WhatsAppProductionFrom string
	WhatsAppAdminTo        string
	WhatsAppCountryCode    string

	AdsConversionID       string
	AdsConversionLabel    string
	AdsConversionValue    string
	AdsConversionCurrency string
	AdsEndpoint           string

	AdminPassword     string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
	CSRFKey           []byte

	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitMessage string

	RedisURL string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetStaticDir() string     { return c.StaticDir }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) IsProduction() bool       { return strings.EqualFold(c.Env, "production") }

// SheetsConfig implementation
func (c *Config) GetSpreadsheetID() string     { return c.SpreadsheetID }
func (c *Config) GetGoogleClientEmail() string { return c.GoogleClientEmail }
func (c *Config) GetGooglePrivateKey() string  { return c.GooglePrivateKey }
func (c *Config) GetSheetsEndpoint() string    { return c.SheetsEndpoint }

// DatabaseConfig implementation
func (c *Config) GetLeadStore() string   { return c.LeadStore }
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetSQLitePath() string  { return c.SQLitePath }

// EmailConfig implementation
func (c *Config) GetEmailProvider() string { return c.EmailProvider }
func (c *Config) GetEmailUser() string     { return c.EmailUser }
func (c *Config) GetEmailPass() string     { return c.EmailPass }
func (c *Config) GetSMTPHost() string      { return c.SMTPHost }
func (c *Config) GetSMTPPort() int         { return c.SMTPPort }
func (c *Config) GetNotifyEmailTo() string { return c.NotifyEmailTo }
func (c *Config) GetResendAPIKey() string  { return c.ResendAPIKey }

// WhatsAppConfig implementation
func (c *Config) GetTwilioAccountSID() string       { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string        { return c.TwilioAuthToken }
func (c *Config) GetTwilioAPIURL() string           { return c.TwilioAPIURL }
func (c *Config) GetWhatsAppMode() string           { return c.WhatsAppMode }
func (c *Config) GetWhatsAppSandboxFrom() string    { return c.WhatsAppSandboxFrom }
func (c *Config) GetWhatsAppProductionFrom() string { return c.WhatsAppProductionFrom }
func (c *Config) GetWhatsAppAdminTo() string        { return c.WhatsAppAdminTo }
func (c *Config) GetWhatsAppCountryCode() string    { return c.WhatsAppCountryCode }

// AdsConfig implementation
func (c *Config) GetAdsConversionID() string       { return c.AdsConversionID }
func (c *Config) GetAdsConversionLabel() string    { return c.AdsConversionLabel }
func (c *Config) GetAdsConversionValue() string    { return c.AdsConversionValue }
func (c *Config) GetAdsConversionCurrency() string { return c.AdsConversionCurrency }
func (c *Config) GetAdsEndpoint() string           { return c.AdsEndpoint }
func (c *Config) IsAdsEnabled() bool               { return c.AdsConversionID != "" }

// AdminConfig implementation
func (c *Config) GetAdminPassword() string     { return c.AdminPassword }
func (c *Config) GetAdminPasswordHash() string { return c.AdminPasswordHash }
func (c *Config) GetSessionSecret() string     { return c.SessionSecret }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }
func (c *Config) GetCSRFKey() []byte           { return c.CSRFKey }

// RateLimitConfig implementation
func (c *Config) GetRateLimitMax() int              { return c.RateLimitMax }
func (c *Config) GetRateLimitWindow() time.Duration { return c.RateLimitWindow }
func (c *Config) GetRateLimitMessage() string       { return c.RateLimitMessage }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	httpAddr := getEnv("HTTP_ADDR", "")
	if httpAddr == "" {
		httpAddr = ":" + getEnv("PORT", "3000")
	}

	emailUser := getEnv("EMAIL_USER", "")

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    httpAddr,
		StaticDir:   getEnv("STATIC_DIR", "public"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "*")),

		LeadStore:         strings.ToLower(getEnv("LEAD_STORE", LeadStoreSheets)),
		SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
		GoogleClientEmail: getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:  strings.ReplaceAll(getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
		SheetsEndpoint:    getEnv("SHEETS_ENDPOINT", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "leads.db"),

		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderSMTP)),
		EmailUser:     emailUser,
		EmailPass:     getEnv("EMAIL_PASS", ""),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      mustInt(getEnv("SMTP_PORT", "587")),
		NotifyEmailTo: getEnv("NOTIFY_EMAIL_TO", emailUser),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),

		TwilioAccountSID:       getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:        getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioAPIURL:           getEnv("TWILIO_API_URL", "https://api.twilio.com"),
		WhatsAppMode:           strings.ToLower(getEnv("WHATSAPP_MODE", MessagingModeSandbox)),
		WhatsAppSandboxFrom:    getEnv("WHATSAPP_SANDBOX_FROM", "+14155238886"),
		WhatsAppProductionFrom: getEnv("WHATSAPP_PRODUCTION_FROM", ""),
		WhatsAppAdminTo:        getEnv("WHATSAPP_ADMIN_TO", ""),
		WhatsAppCountryCode:    getEnv("WHATSAPP_COUNTRY_CODE", "34"),

		AdsConversionID:       getEnv("ADS_CONVERSION_ID", ""),
		AdsConversionLabel:    getEnv("ADS_CONVERSION_LABEL", ""),
		AdsConversionValue:    getEnv("ADS_CONVERSION_VALUE", "1.0"),
		AdsConversionCurrency: getEnv("ADS_CONVERSION_CURRENCY", "EUR"),
		AdsEndpoint:           getEnv("ADS_ENDPOINT", "https://www.googleadservices.com/pagead/conversion"),

		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        mustDuration(getEnv("SESSION_TTL", "12h")),
		CSRFKey:           []byte(getEnv("CSRF_KEY", "")),

		RateLimitMax:     mustInt(getEnv("RATE_LIMIT_MAX", "5")),
		RateLimitWindow:  mustDuration(getEnv("RATE_LIMIT_WINDOW", "15m")),
		RateLimitMessage: getEnv("RATE_LIMIT_MESSAGE", "Demasiadas solicitudes. Inténtalo de nuevo más tarde."),

		RedisURL: getEnv("REDIS_URL", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LeadStore {
	case LeadStoreSheets:
		if c.SpreadsheetID == "" || c.GoogleClientEmail == "" || c.GooglePrivateKey == "" {
			return fmt.Errorf("SPREADSHEET_ID, GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY are required for the sheets store")
		}
	case LeadStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case LeadStoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case LeadStoreMemory:
	default:
		return fmt.Errorf("unknown LEAD_STORE %q", c.LeadStore)
	}

	switch c.EmailProvider {
	case EmailProviderSMTP:
		if c.EmailUser == "" || c.EmailPass == "" {
			return fmt.Errorf("EMAIL_USER and EMAIL_PASS are required for the smtp provider")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			return fmt.Errorf("SMTP_PORT must be a valid port number")
		}
	case EmailProviderResend:
		if c.ResendAPIKey == "" || c.EmailUser == "" {
			return fmt.Errorf("RESEND_API_KEY and EMAIL_USER are required for the resend provider")
		}
	case EmailProviderNoop:
		if c.IsProduction() {
			return fmt.Errorf("EMAIL_PROVIDER=noop is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
	if c.NotifyEmailTo == "" && c.EmailProvider != EmailProviderNoop {
		return fmt.Errorf("NOTIFY_EMAIL_TO is required")
	}

	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	switch c.WhatsAppMode {
	case MessagingModeSandbox:
		if c.WhatsAppAdminTo == "" || c.WhatsAppSandboxFrom == "" {
			return fmt.Errorf("WHATSAPP_ADMIN_TO and WHATSAPP_SANDBOX_FROM are required in sandbox mode")
		}
	case MessagingModeProduction:
		if c.WhatsAppProductionFrom == "" {
			return fmt.Errorf("WHATSAPP_PRODUCTION_FROM is required in production mode")
		}
	default:
		return fmt.Errorf("WHATSAPP_MODE must be %q or %q, got %q", MessagingModeSandbox, MessagingModeProduction, c.WhatsAppMode)
	}

	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.SessionSecret == c.AdminPassword {
		return fmt.Errorf("SESSION_SECRET must differ from ADMIN_PASSWORD")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if len(c.CSRFKey) != 32 {
		return fmt.Errorf("CSRF_KEY must be exactly 32 bytes")
	}

	if c.RateLimitMax < 1 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
