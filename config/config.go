package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Version is reported in the page header and the health check
const Version = "1.0.0"

// Audit source kinds
const (
	AuditSourceFixture = "fixture"
	AuditSourceLive    = "live"
)

// Config holds the runtime configuration
type Config struct {
	Port            string
	DatabasePath    string
	AuditSource     string
	AuditBufferSize int
	SubmitDelay     time.Duration
	SubmitRate      float64
	SubmitBurst     int
	UseHTTPS        bool
	LogLevel        string
	LogFormat       string
	OIDC            OIDCConfig
}

// OIDCConfig holds the optional operator login settings
type OIDCConfig struct {
	Domain       string
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether operator login is configured
func (c OIDCConfig) Enabled() bool {
	return c.Domain != ""
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "axiom_hive.db"),
		AuditSource:  strings.ToLower(getEnv("AUDIT_SOURCE", AuditSourceFixture)),
		UseHTTPS:     os.Getenv("USE_HTTPS") == "true",
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
		OIDC: OIDCConfig{
			Domain:       os.Getenv("OIDC_DOMAIN"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("OIDC_CALLBACK_URL"),
		},
	}

	var err error
	if cfg.AuditBufferSize, err = getEnvInt("AUDIT_BUFFER_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.SubmitBurst, err = getEnvInt("SUBMIT_BURST", 5); err != nil {
		return nil, err
	}

	delay := getEnv("SUBMIT_DELAY", "2s")
	if cfg.SubmitDelay, err = time.ParseDuration(delay); err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_DELAY %q: %w", delay, err)
	}

	rate := getEnv("SUBMIT_RATE", "5")
	if cfg.SubmitRate, err = strconv.ParseFloat(rate, 64); err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_RATE %q: %w", rate, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	if c.AuditSource != AuditSourceFixture && c.AuditSource != AuditSourceLive {
		return fmt.Errorf("AUDIT_SOURCE must be %q or %q, got %q", AuditSourceFixture, AuditSourceLive, c.AuditSource)
	}
	if c.AuditBufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", c.AuditBufferSize)
	}
	if c.SubmitDelay < 0 {
		return fmt.Errorf("SUBMIT_DELAY must not be negative, got %s", c.SubmitDelay)
	}
	if c.SubmitRate <= 0 || c.SubmitBurst <= 0 {
		return fmt.Errorf("SUBMIT_RATE and SUBMIT_BURST must be positive")
	}
	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.ClientSecret == "" || c.OIDC.CallbackURL == "") {
		return fmt.Errorf("OIDC_DOMAIN is set but client ID, client secret or callback URL is missing")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}
