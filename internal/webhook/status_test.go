package webhook

import (
	"testing"

	"github.com/gestfact/payments/internal/storage"
)

func TestTransitionFor(t *testing.T) {
	tests := []struct {
		status     PaymentStatus
		want       storage.InvoiceStatus
		transition bool
	}{
		{StatusCompleted, storage.StatusPaid, true},
		{StatusFailed, storage.StatusSent, true},
		{StatusExpired, storage.StatusSent, true},
		{StatusCanceled, storage.StatusSent, true},
		{StatusPending, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, ok := TransitionFor(tt.status)
			if ok != tt.transition {
				t.Fatalf("transition = %v, want %v", ok, tt.transition)
			}
			if got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}
