// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; when empty the server runs on in-memory stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SessionJWTSecret signs the interactive-session cookie (HS256). Required.
	SessionJWTSecret string `mapstructure:"SESSION_JWT_SECRET"`
	// SessionCookieName is the cookie carrying the interactive-session context.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	// SessionCookieSecure sets the Secure flag on the session cookie.
	SessionCookieSecure bool `mapstructure:"SESSION_COOKIE_SECURE"`
	// SessionCookieTTL is the interactive-session cookie lifetime (e.g. "24h").
	SessionCookieTTL string `mapstructure:"SESSION_COOKIE_TTL"`
	// PendingAuthTTL is how long an identity verification stays valid before the
	// OTP step must complete (e.g. "5m").
	PendingAuthTTL string `mapstructure:"PENDING_AUTH_TTL"`

	// SMTPHost is the outbound mail server host. Empty disables real delivery.
	SMTPHost string `mapstructure:"SMTP_HOST"`
	// SMTPPort is the outbound mail server port (default 465).
	SMTPPort int `mapstructure:"SMTP_PORT"`
	// SMTPUser is the SMTP username.
	SMTPUser string `mapstructure:"SMTP_USER"`
	// SMTPPassword is the SMTP password or app password.
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	// MailFrom is the From header on outbound mail.
	MailFrom string `mapstructure:"MAIL_FROM"`

	// GeoBaseURL is the IP geolocation API base URL (default https://ipapi.co).
	GeoBaseURL string `mapstructure:"GEO_BASE_URL"`

	// RateLimitPerMin is the per-IP request budget per minute for auth endpoints.
	RateLimitPerMin int `mapstructure:"RATE_LIMIT_PER_MIN"`
	// RateLimitBurst is the per-IP burst size for auth endpoints.
	RateLimitBurst int `mapstructure:"RATE_LIMIT_BURST"`

	// DevLogOTP when true logs issued OTPs for development. Must not be true when
	// Env is production (startup error).
	DevLogOTP bool `mapstructure:"DEV_LOG_OTP"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317).
	// Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_JWT_SECRET", "")
	v.SetDefault("SESSION_COOKIE_NAME", "ecc_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_COOKIE_TTL", "24h")
	v.SetDefault("PENDING_AUTH_TTL", "5m")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "ECC Security System <security@eccsystem.com>")
	v.SetDefault("GEO_BASE_URL", "https://ipapi.co")
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("RATE_LIMIT_BURST", 60)
	v.SetDefault("DEV_LOG_OTP", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.SessionJWTSecret == "" {
		return nil, errors.New("config: SESSION_JWT_SECRET must be set")
	}
	if cfg.DevLogOTP && cfg.Env == "production" {
		return nil, errors.New("config: DEV_LOG_OTP must not be true when APP_ENV=production")
	}
	if cfg.RateLimitPerMin <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("config: RATE_LIMIT_PER_MIN and RATE_LIMIT_BURST must be positive")
	}

	return &cfg, nil
}

// PendingAuthDuration parses PendingAuthTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) PendingAuthDuration() time.Duration {
	d, err := time.ParseDuration(c.PendingAuthTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// SessionCookieDuration parses SessionCookieTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionCookieDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionCookieTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
