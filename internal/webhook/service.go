package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/gestfact/payments/internal/logger"
	"github.com/gestfact/payments/internal/metrics"
	"github.com/gestfact/payments/internal/storage"
)

// Processor applies a verified payment notification: it reconciles the
// invoice status, then records an audit row. The two steps are independent;
// a failure in one never prevents the other, and neither failure is surfaced
// to the gateway. Once a notification is authenticated and well-formed, the
// gateway gets a 200 and must not retry.
type Processor struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewProcessor creates a Processor over the given store.
func NewProcessor(store storage.Store, m *metrics.Metrics) *Processor {
	return &Processor{store: store, metrics: m}
}

// Result summarizes what a Process call actually did, for response messages
// and logging. It never carries an error: processing failures are terminal
// for nobody.
type Result struct {
	InvoiceUpdated bool
	NewStatus      storage.InvoiceStatus
	Duplicate      bool
}

// Process reconciles and audits one notification. raw must be the exact body
// bytes as received; they are persisted verbatim in the audit log.
func (p *Processor) Process(ctx context.Context, n Notification, raw []byte, sourceIP string) Result {
	var res Result
	res.NewStatus, res.InvoiceUpdated = p.reconcile(ctx, n)
	res.Duplicate = p.audit(ctx, n, raw, sourceIP)
	return res
}

// reconcile maps the gateway status onto an invoice status and writes it.
// A missing orderId, a pending status, or an unknown invoice all leave the
// database untouched.
func (p *Processor) reconcile(ctx context.Context, n Notification) (storage.InvoiceStatus, bool) {
	log := logger.FromContext(ctx)

	target, ok := TransitionFor(PaymentStatus(n.Payment.Status))
	if !ok {
		log.Debug().
			Str("payment_reference", n.Payment.Reference).
			Str("payment_status", n.Payment.Status).
			Msg("webhook.reconcile.skipped")
		p.metrics.ReconciliationTotal.WithLabelValues("skipped").Inc()
		return "", false
	}
	if n.Payment.OrderID == "" {
		log.Info().
			Str("payment_reference", n.Payment.Reference).
			Msg("webhook.reconcile.no_order_id")
		p.metrics.ReconciliationTotal.WithLabelValues("skipped").Inc()
		return "", false
	}

	err := p.store.UpdateInvoiceStatus(ctx, n.Payment.OrderID, target)
	switch {
	case err == nil:
		log.Info().
			Str("invoice", n.Payment.OrderID).
			Str("status", string(target)).
			Msg("webhook.reconcile.updated")
		p.metrics.ReconciliationTotal.WithLabelValues("updated").Inc()
		return target, true
	case errors.Is(err, storage.ErrNotFound):
		// The gateway can notify about payments whose invoice was deleted
		// or never existed here. Log it, keep the audit trail, move on.
		log.Warn().
			Str("invoice", n.Payment.OrderID).
			Str("payment_reference", n.Payment.Reference).
			Msg("webhook.reconcile.invoice_not_found")
		p.metrics.ReconciliationTotal.WithLabelValues("not_found").Inc()
		return "", false
	default:
		log.Error().Err(err).
			Str("invoice", n.Payment.OrderID).
			Msg("webhook.reconcile.failed")
		p.metrics.ReconciliationTotal.WithLabelValues("error").Inc()
		return "", false
	}
}

// audit inserts one log row keyed by the payment reference. Gateway retries
// of an already-seen notification hit the unique constraint and are counted
// as duplicates, not failures. Reports whether the row was a duplicate.
func (p *Processor) audit(ctx context.Context, n Notification, raw []byte, sourceIP string) bool {
	log := logger.FromContext(ctx)

	entry := storage.AuditLogEntry{
		Reference:     n.Payment.Reference,
		Status:        n.Payment.Status,
		InvoiceNumber: n.Payment.OrderID,
		RawPayload:    raw,
		SourceIP:      sourceIP,
		ReceivedAt:    time.Now().UTC(),
	}

	err := p.store.InsertAuditLog(ctx, entry)
	switch {
	case err == nil:
		p.metrics.AuditLogTotal.WithLabelValues("inserted").Inc()
		return false
	case errors.Is(err, storage.ErrDuplicate):
		log.Info().
			Str("payment_reference", n.Payment.Reference).
			Msg("webhook.audit.duplicate")
		p.metrics.AuditLogTotal.WithLabelValues("duplicate").Inc()
		return true
	default:
		log.Error().Err(err).
			Str("payment_reference", n.Payment.Reference).
			Msg("webhook.audit.failed")
		p.metrics.AuditLogTotal.WithLabelValues("error").Inc()
		return false
	}
}
