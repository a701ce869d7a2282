package webhook

import "github.com/gestfact/payments/internal/storage"

// TransitionFor maps a gateway payment status onto the invoice status to
// write. The second return value is false when no transition applies:
// "pending" is explicitly a no-op, the record stays untouched.
//
// Failed, expired, and canceled payments revert the invoice to "sent" rather
// than a terminal state: the invoice remains awaiting payment.
func TransitionFor(status PaymentStatus) (storage.InvoiceStatus, bool) {
	switch status {
	case StatusCompleted:
		return storage.StatusPaid, true
	case StatusFailed, StatusExpired, StatusCanceled:
		return storage.StatusSent, true
	default:
		return "", false
	}
}
