package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.SessionCookieName != "ecc_session" {
		t.Errorf("SessionCookieName = %q, want %q", cfg.SessionCookieName, "ecc_session")
	}
	if cfg.PendingAuthTTL != "5m" {
		t.Errorf("PendingAuthTTL = %q, want %q", cfg.PendingAuthTTL, "5m")
	}
	if cfg.SMTPPort != 465 {
		t.Errorf("SMTPPort = %d, want 465", cfg.SMTPPort)
	}
	if cfg.GeoBaseURL != "https://ipapi.co" {
		t.Errorf("GeoBaseURL = %q, want default", cfg.GeoBaseURL)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Errorf("RateLimitPerMin = %d, want 120", cfg.RateLimitPerMin)
	}
	if cfg.DevLogOTP {
		t.Error("DevLogOTP should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("SESSION_COOKIE_NAME", "custom_cookie")
	os.Setenv("RATE_LIMIT_PER_MIN", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.SessionCookieName != "custom_cookie" {
		t.Errorf("SessionCookieName = %q, want %q", cfg.SessionCookieName, "custom_cookie")
	}
	if cfg.RateLimitPerMin != 30 {
		t.Errorf("RateLimitPerMin = %d, want 30", cfg.RateLimitPerMin)
	}
}

func TestLoad_SessionSecretRequired(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should return error when SESSION_JWT_SECRET is unset")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestLoad_DevLogOTPProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	os.Setenv("DEV_LOG_OTP", "true")
	os.Setenv("APP_ENV", "production")

	_, err := Load()
	if err == nil {
		t.Fatal("Load should return error when DEV_LOG_OTP=true and APP_ENV=production")
	}
	if err.Error() != "config: DEV_LOG_OTP must not be true when APP_ENV=production" {
		t.Errorf("error = %q, want production guard message", err.Error())
	}
}

func TestLoad_DevLogOTPDevelopment(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	os.Setenv("DEV_LOG_OTP", "true")
	os.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DevLogOTP {
		t.Error("DevLogOTP should be true")
	}
}

func TestLoad_RateLimitValidation(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	os.Setenv("RATE_LIMIT_PER_MIN", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a non-positive rate limit")
	}
}

func TestPendingAuthDuration(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid", "3m", 3 * time.Minute},
		{"invalid", "not-a-duration", 5 * time.Minute},
		{"zero", "0", 5 * time.Minute},
		{"negative", "-1m", 5 * time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("SESSION_JWT_SECRET", "test-secret")
			os.Setenv("PENDING_AUTH_TTL", tc.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.PendingAuthDuration(); got != tc.want {
				t.Errorf("PendingAuthDuration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionCookieDuration(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	os.Setenv("SESSION_COOKIE_TTL", "12h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.SessionCookieDuration(); got != 12*time.Hour {
		t.Errorf("SessionCookieDuration = %v, want %v", got, 12*time.Hour)
	}
}
