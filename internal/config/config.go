package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	LogFormat     string
	DatabaseURL   string

	CORSAllowedOrigins []string

	// Auth
	JWTSecret       string
	JWTExpiry       time.Duration
	BcryptCost      int
	OTPTTL          time.Duration
	TempPasswordTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email delivery. Provider is "sendgrid" (default) or "ses".
	// ServiceKey and FromEmail must both be present for sends to be
	// attempted at all; the dispatcher refuses otherwise.
	EmailProvider   string
	EmailServiceKey string
	EmailFromEmail  string
	EmailFromName   string

	// The two registered template identifiers the dispatcher binds to.
	EmailTemplateA string
	EmailTemplateB string

	AWSRegion string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTExpiry:       getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 12),
		OTPTTL:          getEnvAsDuration("OTP_TTL", 10*time.Minute),
		TempPasswordTTL: getEnvAsDuration("TEMP_PASSWORD_TTL", 30*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:   strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		EmailServiceKey: getEnv("EMAIL_SERVICE_KEY", ""),
		EmailFromEmail:  getEnv("EMAIL_FROM_EMAIL", ""),
		EmailFromName:   getEnv("EMAIL_FROM_NAME", "MediBook Clinic"),
		EmailTemplateA:  getEnv("EMAIL_TEMPLATE_A", "d-account-template"),
		EmailTemplateB:  getEnv("EMAIL_TEMPLATE_B", "d-appointment-template"),

		AWSRegion: getEnv("AWS_REGION", "ap-southeast-1"),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// EmailConfigured reports whether both required email delivery values are
// present. Send functions must not touch the transport when this is false.
func (c *Config) EmailConfigured() bool {
	return strings.TrimSpace(c.EmailServiceKey) != "" && strings.TrimSpace(c.EmailFromEmail) != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
