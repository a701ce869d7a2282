package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Konnect   KonnectConfig   `yaml:"konnect"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"` // defaults to ["*"]: the gateway calls from outside our origin
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// KonnectConfig holds Konnect payment gateway configuration.
// APIKey and WebhookSecret are secrets and should come from the environment.
type KonnectConfig struct {
	APIKey        string   `yaml:"api_key"`
	WebhookSecret string   `yaml:"webhook_secret"`
	BaseURL       string   `yaml:"base_url"`
	WalletID      string   `yaml:"wallet_id"` // receiver wallet for initiated payments
	Timeout       Duration `yaml:"timeout"`
}

// WebhookConfig holds webhook receiver configuration.
type WebhookConfig struct {
	// Per-IP fixed window applied to the webhook endpoint only.
	RateLimitMax    int      `yaml:"rate_limit_max"`    // default: 50
	RateLimitWindow Duration `yaml:"rate_limit_window"` // default: 60s

	// RequireSignature rejects webhooks that omit the signature header while
	// a secret is configured. Off by default: the historical behavior is to
	// accept unsigned webhooks with a warning.
	RequireSignature bool `yaml:"require_signature"`
}

// StorageConfig holds records store configuration.
type StorageConfig struct {
	Backend         string             `yaml:"backend"` // "memory", "postgres", or "mongodb"
	PostgresURL     string             `yaml:"postgres_url"`
	MongoDBURL      string             `yaml:"mongodb_url"`
	MongoDBDatabase string             `yaml:"mongodb_database"`
	PostgresPool    PostgresPoolConfig `yaml:"postgres_pool"`

	// Table/collection names. The invoices table is owned by the invoicing
	// application; this service only updates its status column.
	InvoicesTableName string `yaml:"invoices_table_name"` // default: "factures"
	AuditLogTableName string `yaml:"audit_log_table_name"` // default: "paiements_webhook_log"
}

// PostgresPoolConfig holds PostgreSQL connection pool settings.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`    // default: 25
	MaxIdleConns    int      `yaml:"max_idle_conns"`    // default: 5
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"` // default: 5m
}

// RateLimitConfig holds the global (server-wide) rate limit applied on top of
// the webhook endpoint's own per-IP limiter.
type RateLimitConfig struct {
	GlobalEnabled bool     `yaml:"global_enabled"`
	GlobalLimit   int      `yaml:"global_limit"`
	GlobalWindow  Duration `yaml:"global_window"`
}
