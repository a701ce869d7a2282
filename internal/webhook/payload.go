package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// PaymentStatus enumerates the statuses the gateway reports.
type PaymentStatus string

const (
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusExpired   PaymentStatus = "expired"
	StatusCanceled  PaymentStatus = "canceled"
	StatusPending   PaymentStatus = "pending"
)

// identifierPattern constrains payment references and order identifiers:
// both are opaque alphanumeric-with-hyphens strings.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Notification is the validated shape of a gateway payment notification.
// A Notification only exists after structural validation has passed; nothing
// downstream operates on loosely-typed JSON.
type Notification struct {
	Payment Payment `json:"payment"`
}

// Payment carries the gateway's report about one payment.
type Payment struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	OrderID   string `json:"orderId"`
}

// ValidationError describes a structural problem with a notification payload.
// It is an expected failure routed to a 400 response, never a panic.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment notification: %s %s", e.Field, e.Reason)
}

// ParseError indicates the body was not well-formed JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed webhook body: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseNotification parses raw body bytes into a validated Notification.
// It returns *ParseError for malformed JSON and *ValidationError when the
// shape checks fail. No side effect may occur before this succeeds.
func ParseNotification(raw []byte) (Notification, error) {
	var envelope struct {
		Payment *Payment `json:"payment"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Notification{}, &ParseError{Err: err}
	}

	if envelope.Payment == nil {
		return Notification{}, &ValidationError{Field: "payment", Reason: "object is required"}
	}

	p := *envelope.Payment
	if p.Reference == "" {
		return Notification{}, &ValidationError{Field: "payment.reference", Reason: "is required"}
	}
	if !identifierPattern.MatchString(p.Reference) {
		return Notification{}, &ValidationError{Field: "payment.reference", Reason: "must be alphanumeric with hyphens"}
	}

	switch PaymentStatus(p.Status) {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCanceled, StatusPending:
	default:
		return Notification{}, &ValidationError{Field: "payment.status", Reason: "must be one of completed, failed, expired, canceled, pending"}
	}

	// An absent orderId is legitimate (non-order payment flows); a present
	// one must be a safe lookup key before it is used anywhere.
	if p.OrderID != "" && !identifierPattern.MatchString(p.OrderID) {
		return Notification{}, &ValidationError{Field: "payment.orderId", Reason: "must be alphanumeric with hyphens"}
	}

	return Notification{Payment: p}, nil
}
