package webhook

import (
	"errors"
	"testing"
)

func TestParseNotification_Valid(t *testing.T) {
	raw := []byte(`{"payment":{"reference":"pay-7f3a","status":"completed","orderId":"FAC-2025-009"}}`)

	n, err := ParseNotification(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Payment.Reference != "pay-7f3a" {
		t.Errorf("reference = %q", n.Payment.Reference)
	}
	if n.Payment.Status != "completed" {
		t.Errorf("status = %q", n.Payment.Status)
	}
	if n.Payment.OrderID != "FAC-2025-009" {
		t.Errorf("orderId = %q", n.Payment.OrderID)
	}
}

func TestParseNotification_OrderIDOptional(t *testing.T) {
	raw := []byte(`{"payment":{"reference":"pay-1","status":"pending"}}`)

	n, err := ParseNotification(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Payment.OrderID != "" {
		t.Errorf("expected empty orderId, got %q", n.Payment.OrderID)
	}
}

func TestParseNotification_MalformedJSON(t *testing.T) {
	_, err := ParseNotification([]byte(`{"payment":`))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %v", err)
	}
}

func TestParseNotification_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "missing payment object",
			raw:   `{"event":"payment.updated"}`,
			field: "payment",
		},
		{
			name:  "payment is null",
			raw:   `{"payment":null}`,
			field: "payment",
		},
		{
			name:  "missing reference",
			raw:   `{"payment":{"status":"completed","orderId":"FAC-1"}}`,
			field: "payment.reference",
		},
		{
			name:  "reference with invalid characters",
			raw:   `{"payment":{"reference":"pay_7f3a!","status":"completed"}}`,
			field: "payment.reference",
		},
		{
			name:  "unknown status",
			raw:   `{"payment":{"reference":"pay-1","status":"refunded"}}`,
			field: "payment.status",
		},
		{
			name:  "empty status",
			raw:   `{"payment":{"reference":"pay-1","status":""}}`,
			field: "payment.status",
		},
		{
			name:  "orderId with injection characters",
			raw:   `{"payment":{"reference":"pay-1","status":"completed","orderId":"FAC-1'; DROP TABLE factures;--"}}`,
			field: "payment.orderId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNotification([]byte(tt.raw))

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if valErr.Field != tt.field {
				t.Errorf("field = %q, want %q", valErr.Field, tt.field)
			}
		})
	}
}
