package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		// The payment gateway calls the webhook endpoint cross-origin.
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Webhook.RateLimitMax <= 0 {
		c.Webhook.RateLimitMax = 50
	}
	if c.Webhook.RateLimitWindow.Duration <= 0 {
		c.Webhook.RateLimitWindow = Duration{Duration: 60 * time.Second}
	}
	if c.Konnect.Timeout.Duration <= 0 {
		c.Konnect.Timeout = Duration{Duration: 10 * time.Second}
	}
	if c.Storage.InvoicesTableName == "" {
		c.Storage.InvoicesTableName = "factures"
	}
	if c.Storage.AuditLogTableName == "" {
		c.Storage.AuditLogTableName = "paiements_webhook_log"
	}

	return c.validate()
}

// validate checks that required configuration fields are set correctly.
//
// A missing Konnect API key is deliberately NOT a startup error: the service
// must still come up and fail closed (HTTP 500) on gateway-dependent requests
// so that misconfiguration is visible to the caller rather than hidden behind
// a crash loop.
func (c *Config) validate() error {
	var errs []string

	switch c.Storage.Backend {
	case "", "memory":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			errs = append(errs, "storage.postgres_url is required when backend is 'postgres'")
		}
	case "mongodb":
		if c.Storage.MongoDBURL == "" {
			errs = append(errs, "storage.mongodb_url is required when backend is 'mongodb'")
		}
		if c.Storage.MongoDBDatabase == "" {
			errs = append(errs, "storage.mongodb_database is required when backend is 'mongodb'")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown storage.backend: %q", c.Storage.Backend))
	}

	if c.Konnect.BaseURL == "" {
		errs = append(errs, "konnect.base_url is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// GatewayConfigured reports whether the Konnect API key is present. Handlers
// use this to fail closed when the gateway integration is not configured.
func (c *Config) GatewayConfigured() bool {
	return c.Konnect.APIKey != ""
}
