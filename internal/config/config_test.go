package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("expected default JWT expiry 24h, got %s", cfg.JWTExpiry)
	}
	if cfg.EmailProvider != "sendgrid" {
		t.Errorf("expected default email provider sendgrid, got %s", cfg.EmailProvider)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("expected OTP TTL 5m, got %s", cfg.OTPTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("expected rate 2.5, got %f", cfg.RateLimitPerSecond)
	}
}

func TestEmailConfigured(t *testing.T) {
	cfg := &Config{EmailServiceKey: "key", EmailFromEmail: "clinic@example.com"}
	if !cfg.EmailConfigured() {
		t.Error("expected configured when both values present")
	}

	cfg.EmailServiceKey = "  "
	if cfg.EmailConfigured() {
		t.Error("expected not configured when service key blank")
	}

	cfg.EmailServiceKey = "key"
	cfg.EmailFromEmail = ""
	if cfg.EmailConfigured() {
		t.Error("expected not configured when from email missing")
	}
}
