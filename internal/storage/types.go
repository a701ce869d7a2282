package storage

import "time"

// InvoiceStatus enumerates the lifecycle states of an invoice (facture).
// The webhook only ever writes StatusPaid and StatusSent; the remaining
// states are driven by the invoicing application itself.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// AuditLogEntry is the append-only record of one processed webhook call.
// Reference is unique at the store level: reprocessing the same webhook must
// not create a second row.
type AuditLogEntry struct {
	Reference     string    // payment reference from the gateway (unique)
	Status        string    // gateway payment status as received
	InvoiceNumber string    // human-facing invoice number (numero), may be empty
	RawPayload    []byte    // exact body bytes as received
	SourceIP      string    // caller address
	ReceivedAt    time.Time // when the webhook was processed
}
