// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Mail holds the environment-supplied email defaults. These sit at the
	// bottom of the settings resolution chain, below stored session settings
	// and request overrides.
	Mail MailConfig

	// Cron holds log-cleanup settings.
	Cron CronConfig

	// SecretKey encrypts credentials stored in the session settings store.
	SecretKey string

	// SettingsFile is where POST /settings exports resolved settings.
	SettingsFile string
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// MailConfig holds the env-level email defaults. All fields are optional;
// missing values are reported to clients as incomplete configuration rather
// than failing startup.
type MailConfig struct {
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	FromEmail   string
	FromName    string
	BrevoAPIKey string
}

// CronConfig holds log-cleanup settings.
type CronConfig struct {
	// Secret is the bearer token required by POST /cron/cleanup-logs.
	Secret string

	// Schedule is an optional cron expression for the in-process cleanup
	// schedule (e.g., "0 3 * * *"). Empty disables the internal schedule;
	// the HTTP endpoint still works for external triggers.
	Schedule string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing in production.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Mail: MailConfig{
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnv("SMTP_PORT", ""),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			FromEmail:   getEnv("FROM_EMAIL", ""),
			FromName:    getEnv("FROM_NAME", ""),
			BrevoAPIKey: getEnv("BREVO_API_KEY", ""),
		},

		Cron: CronConfig{
			Secret:   getEnv("CRON_SECRET", ""),
			Schedule: getEnv("CLEANUP_SCHEDULE", ""),
		},

		SecretKey:    getEnv("SECRET_KEY", ""),
		SettingsFile: getEnv("SETTINGS_FILE", "./settings.json"),
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
		if cfg.Cron.Secret == "" {
			return nil, fmt.Errorf("CRON_SECRET is required in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.SecretKey == "" {
		cfg.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// MissingMailVars lists the email env vars that were not set at startup.
// Logged as a warning on boot; the app keeps running with whatever is there.
func (c *Config) MissingMailVars() []string {
	var missing []string
	for _, v := range []struct {
		name, val string
	}{
		{"SMTP_HOST", c.Mail.SMTPHost},
		{"SMTP_PORT", c.Mail.SMTPPort},
		{"SMTP_USER", c.Mail.SMTPUser},
		{"SMTP_PASS", c.Mail.SMTPPass},
		{"FROM_EMAIL", c.Mail.FromEmail},
		{"FROM_NAME", c.Mail.FromName},
		{"BREVO_API_KEY", c.Mail.BrevoAPIKey},
	} {
		if v.val == "" {
			missing = append(missing, v.name)
		}
	}
	return missing
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
