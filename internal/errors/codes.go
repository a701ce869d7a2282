package errors

// ErrorCode represents a machine-readable error identifier used to route
// failures to the correct HTTP status.
type ErrorCode string

// Request admission errors
const (
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"
	ErrCodeRateLimited      ErrorCode = "rate_limited"
)

// Validation errors (request input)
const (
	ErrCodeInvalidPayload ErrorCode = "invalid_payload"
	ErrCodeMissingField   ErrorCode = "missing_field"
	ErrCodeInvalidField   ErrorCode = "invalid_field"
)

// Authentication errors
const (
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"
	ErrCodeMissingSignature ErrorCode = "missing_signature"
)

// Resource/state errors
const (
	ErrCodePaymentNotFound ErrorCode = "payment_not_found"
)

// External service errors
const (
	ErrCodeGatewayError ErrorCode = "gateway_error"
)

// Internal/system errors
const (
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeConfigError   ErrorCode = "config_error"
)

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrCodeInvalidPayload,
		ErrCodeMissingField,
		ErrCodeInvalidField:
		return 400

	case ErrCodeInvalidSignature,
		ErrCodeMissingSignature:
		return 401

	case ErrCodePaymentNotFound:
		return 404

	case ErrCodeMethodNotAllowed:
		return 405

	case ErrCodeRateLimited:
		return 429

	case ErrCodeGatewayError:
		return 502

	default:
		return 500
	}
}
