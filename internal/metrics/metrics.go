// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	// WebhooksTotal counts webhook requests by final outcome
	// (ok, rate_limited, invalid_signature, invalid_payload, config_error, ...).
	WebhooksTotal *prometheus.CounterVec

	// WebhookDuration observes end-to-end webhook handling time in seconds.
	WebhookDuration prometheus.Histogram

	// ReconciliationTotal counts invoice status writes by result
	// (updated, skipped, not_found, error).
	ReconciliationTotal *prometheus.CounterVec

	// AuditLogTotal counts audit-log inserts by result (inserted, duplicate, error).
	AuditLogTotal *prometheus.CounterVec

	// RateLimitHitsTotal counts webhook requests rejected by the per-IP limiter.
	RateLimitHitsTotal prometheus.Counter

	// GatewayCallsTotal counts outbound gateway calls by operation and status
	// (ok, error, breaker_open).
	GatewayCallsTotal *prometheus.CounterVec
}

// New registers all collectors with reg and returns them. The server passes
// prometheus.DefaultRegisterer; tests pass a fresh registry so repeated
// construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gestfact_webhooks_total",
			Help: "Webhook requests received, by final outcome.",
		}, []string{"outcome"}),
		WebhookDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gestfact_webhook_duration_seconds",
			Help:    "End-to-end webhook handling duration.",
			Buckets: prometheus.DefBuckets,
		}),
		ReconciliationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gestfact_reconciliation_total",
			Help: "Invoice status reconciliations, by result.",
		}, []string{"result"}),
		AuditLogTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gestfact_audit_log_total",
			Help: "Audit-log insert attempts, by result.",
		}, []string{"result"}),
		RateLimitHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gestfact_rate_limit_hits_total",
			Help: "Webhook requests rejected by the per-IP rate limiter.",
		}),
		GatewayCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gestfact_gateway_calls_total",
			Help: "Outbound payment-gateway calls, by operation and status.",
		}, []string{"operation", "status"}),
	}
}
