package httpserver

import (
	"errors"
	"io"
	"net/http"
	"time"

	apierrors "github.com/gestfact/payments/internal/errors"
	"github.com/gestfact/payments/internal/logger"
	"github.com/gestfact/payments/internal/webhook"
	"github.com/gestfact/payments/pkg/responders"
)

// maxWebhookBody bounds the webhook request body. Gateway notifications are
// small; anything larger is hostile.
const maxWebhookBody = 1 << 20

type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// konnectWebhook handles payment notifications from the Konnect gateway.
//
// The checks run strictly in order: method, per-IP rate limit, gateway
// configuration, body shape, signature. Only after all of them pass does any
// state change, and from that point on the gateway always gets a 200 so it
// never retries a delivery we have already accepted.
func (h *handlers) konnectWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.WebhookDuration.Observe(time.Since(start).Seconds())
	}()

	log := logger.FromContext(r.Context())
	sourceIP := logger.ClientIP(r)

	// Preflight is normally consumed by the CORS middleware; a plain OPTIONS
	// without preflight headers still lands here.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		log.Warn().
			Str("http_method", r.Method).
			Str("source_ip", sourceIP).
			Msg("webhook.method_not_allowed")
		h.webhookOutcome("method_not_allowed")
		apierrors.WriteError(w, apierrors.ErrCodeMethodNotAllowed, "method not allowed")
		return
	}

	if !h.limiter.Admit(sourceIP) {
		log.Warn().
			Str("source_ip", sourceIP).
			Msg("webhook.rate_limited")
		h.metrics.RateLimitHitsTotal.Inc()
		h.webhookOutcome("rate_limited")
		apierrors.WriteError(w, apierrors.ErrCodeRateLimited, "too many requests")
		return
	}

	// Fail closed before touching the body: a missing gateway key means the
	// deployment is broken, not that checks can be skipped.
	if !h.cfg.GatewayConfigured() {
		log.Error().Msg("webhook.gateway_not_configured")
		h.webhookOutcome("config_error")
		apierrors.WriteError(w, apierrors.ErrCodeConfigError, "payment gateway is not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		log.Warn().
			Err(err).
			Str("source_ip", sourceIP).
			Msg("webhook.body_read_failed")
		h.webhookOutcome("invalid_payload")
		apierrors.WriteError(w, apierrors.ErrCodeInvalidPayload, "unable to read request body")
		return
	}

	notification, err := webhook.ParseNotification(body)
	if err != nil {
		var valErr *webhook.ValidationError
		if errors.As(err, &valErr) {
			log.Warn().
				Str("field", valErr.Field).
				Str("source_ip", sourceIP).
				Str("payload", logger.TruncatePayload(body)).
				Msg("webhook.invalid_payload")
			h.webhookOutcome("invalid_payload")
			apierrors.WriteError(w, apierrors.ErrCodeInvalidField, valErr.Error())
			return
		}
		log.Warn().
			Err(err).
			Str("source_ip", sourceIP).
			Str("payload", logger.TruncatePayload(body)).
			Msg("webhook.malformed_body")
		h.webhookOutcome("invalid_payload")
		apierrors.WriteError(w, apierrors.ErrCodeInvalidPayload, "request body is not valid JSON")
		return
	}

	if !h.verifyWebhookSignature(w, r, body, sourceIP) {
		return
	}

	log.Info().
		Str("payment_reference", notification.Payment.Reference).
		Str("payment_status", notification.Payment.Status).
		Str("order_id", notification.Payment.OrderID).
		Str("source_ip", sourceIP).
		Msg("webhook.received")

	res := h.processor.Process(r.Context(), notification, body, sourceIP)

	h.webhookOutcome("ok")
	message := "webhook processed"
	if res.Duplicate {
		message = "webhook already processed"
	}
	responders.JSON(w, http.StatusOK, webhookResponse{Success: true, Message: message})
}

// verifyWebhookSignature applies the signature policy and writes the error
// response itself when the request must be rejected. Returns true when
// processing may continue.
//
// An unsigned request with a secret configured is accepted with a warning
// unless webhook.require_signature is on. That default mirrors the gateway's
// historical behavior of omitting the header on some notification types;
// flipping the flag closes the gap once the gateway signs everything.
func (h *handlers) verifyWebhookSignature(w http.ResponseWriter, r *http.Request, body []byte, sourceIP string) bool {
	log := logger.FromContext(r.Context())
	secret := h.cfg.Konnect.WebhookSecret
	signature := r.Header.Get(webhook.SignatureHeader)

	switch {
	case secret == "":
		// No secret provisioned: verification is off, not failing.
		if signature == "" {
			log.Warn().Msg("webhook.signature.not_configured")
		}
		return true

	case signature == "":
		if h.cfg.Webhook.RequireSignature {
			log.Error().
				Str("source_ip", sourceIP).
				Msg("webhook.missing_signature")
			h.webhookOutcome("missing_signature")
			apierrors.WriteError(w, apierrors.ErrCodeMissingSignature, "signature header is required")
			return false
		}
		log.Warn().
			Str("source_ip", sourceIP).
			Msg("webhook.unsigned_accepted")
		return true

	default:
		if err := webhook.VerifySignature(body, secret, signature); err != nil {
			log.Error().
				Err(err).
				Str("source_ip", sourceIP).
				Msg("webhook.invalid_signature")
			h.webhookOutcome("invalid_signature")
			apierrors.WriteError(w, apierrors.ErrCodeInvalidSignature, "invalid signature")
			return false
		}
		return true
	}
}

func (h *handlers) webhookOutcome(outcome string) {
	h.metrics.WebhooksTotal.WithLabelValues(outcome).Inc()
}
