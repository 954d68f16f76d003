package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	StoreDriver  string
	DatabaseURL  string
	DatabaseName string

	SessionSecret string
	SessionTTL    time.Duration
	CookieDomain  string

	AllowedOrigins []string
	AppURL         string

	FlutterwaveSecret        string
	FlutterwaveWebhookSecret string
	FlutterwaveBaseURL       string
	PaystackSecret           string
	WithdrawFeePercent       float64

	BrevoAPIKey string
	SenderEmail string
	SenderName  string
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string

	AIKey     string
	AITimeout time.Duration

	GCSBucket          string
	GCSCredentialsFile string

	MetricsPath string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvOrDefault("PORT", "9090"),
		GinMode:  getEnvOrDefault("GIN_MODE", "release"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		StoreDriver:  strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMongo)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: getEnvOrDefault("DATABASE_NAME", "Wishy"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieDomain:  os.Getenv("COOKIE_DOMAIN"),

		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		AppURL:         os.Getenv("APP_URL"),

		FlutterwaveSecret:        os.Getenv("FLW_SECRET_KEY"),
		FlutterwaveWebhookSecret: os.Getenv("FLW_WEBHOOK_SECRET"),
		FlutterwaveBaseURL:       getEnvOrDefault("FLW_BASE_URL", "https://api.flutterwave.com/v3"),
		PaystackSecret:           os.Getenv("PAYSTACK_SEC_KEY"),

		BrevoAPIKey: os.Getenv("BREVO_API_KEY"),
		SenderEmail: getEnvOrDefault("SENDER_EMAIL", "no-reply@wishy.app"),
		SenderName:  getEnvOrDefault("SENDER_NAME", "Wishy"),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),

		AIKey: os.Getenv("XAI_API_KEY"),

		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),

		MetricsPath: getEnvOrDefault("METRICS_PATH", "/metrics"),
	}

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(getEnvOrDefault("SESSION_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.AITimeout, err = time.ParseDuration(getEnvOrDefault("AI_TIMEOUT", "18s")); err != nil {
		return nil, fmt.Errorf("AI_TIMEOUT: %w", err)
	}
	if cfg.WithdrawFeePercent, err = strconv.ParseFloat(getEnvOrDefault("WITHDRAW_FEE_PERCENT", "1"), 64); err != nil {
		return nil, fmt.Errorf("WITHDRAW_FEE_PERCENT: %w", err)
	}
	if cfg.WithdrawFeePercent < 0 {
		return nil, fmt.Errorf("WITHDRAW_FEE_PERCENT must not be negative")
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required")
		}
		if cfg.SessionSecret == "" {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
		}
	case StoreMemory:
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "wishy-dev-session-secret"
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
