package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use the GESTFACT_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "GESTFACT_SERVER_ADDRESS")
	if v := os.Getenv("GESTFACT_CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.CORSAllowedOrigins = origins
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "GESTFACT_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "GESTFACT_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "GESTFACT_ENVIRONMENT")

	// Konnect config (secrets live in the environment, not YAML)
	setIfEnv(&c.Konnect.APIKey, "GESTFACT_KONNECT_API_KEY")
	setIfEnv(&c.Konnect.WebhookSecret, "GESTFACT_KONNECT_WEBHOOK_SECRET")
	setIfEnv(&c.Konnect.BaseURL, "GESTFACT_KONNECT_BASE_URL")
	setIfEnv(&c.Konnect.WalletID, "GESTFACT_KONNECT_WALLET_ID")
	setDurationIfEnv(&c.Konnect.Timeout, "GESTFACT_KONNECT_TIMEOUT")

	// Webhook config
	setIntIfEnv(&c.Webhook.RateLimitMax, "GESTFACT_WEBHOOK_RATE_LIMIT_MAX")
	setDurationIfEnv(&c.Webhook.RateLimitWindow, "GESTFACT_WEBHOOK_RATE_LIMIT_WINDOW")
	setBoolIfEnv(&c.Webhook.RequireSignature, "GESTFACT_WEBHOOK_REQUIRE_SIGNATURE")

	// Storage config
	setIfEnv(&c.Storage.Backend, "GESTFACT_STORAGE_BACKEND")
	setIfEnv(&c.Storage.PostgresURL, "GESTFACT_STORAGE_POSTGRES_URL")
	setIfEnv(&c.Storage.MongoDBURL, "GESTFACT_STORAGE_MONGODB_URL")
	setIfEnv(&c.Storage.MongoDBDatabase, "GESTFACT_STORAGE_MONGODB_DATABASE")
	setIfEnv(&c.Storage.InvoicesTableName, "GESTFACT_STORAGE_INVOICES_TABLE")
	setIfEnv(&c.Storage.AuditLogTableName, "GESTFACT_STORAGE_AUDIT_LOG_TABLE")

	// Global rate limit config
	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "GESTFACT_RATE_LIMIT_GLOBAL_ENABLED")
	setIntIfEnv(&c.RateLimit.GlobalLimit, "GESTFACT_RATE_LIMIT_GLOBAL_LIMIT")
	setDurationIfEnv(&c.RateLimit.GlobalWindow, "GESTFACT_RATE_LIMIT_GLOBAL_WINDOW")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}
