package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/gestfact/payments/internal/errors"
	"github.com/gestfact/payments/internal/konnect"
	"github.com/gestfact/payments/internal/logger"
	"github.com/gestfact/payments/pkg/responders"
)

type initPaymentRequest struct {
	Amount      int64  `json:"amount"` // smallest currency unit
	Token       string `json:"token"`
	OrderID     string `json:"orderId"`
	Description string `json:"description"`
	WebhookURL  string `json:"webhookUrl"`
}

type initPaymentResponse struct {
	PaymentRef string `json:"paymentRef"`
	PayURL     string `json:"payUrl"`
}

// initPayment creates a payment session on the gateway for an invoice and
// returns the hosted payment page URL for the customer.
func (h *handlers) initPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if !h.cfg.GatewayConfigured() {
		log.Error().Msg("payments.init.gateway_not_configured")
		apierrors.WriteError(w, apierrors.ErrCodeConfigError, "payment gateway is not configured")
		return
	}

	var req initPaymentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("payments.init.invalid_body")
		apierrors.WriteError(w, apierrors.ErrCodeInvalidPayload, "request body is not valid JSON")
		return
	}
	if req.Amount <= 0 {
		apierrors.WriteError(w, apierrors.ErrCodeInvalidField, "amount must be positive")
		return
	}
	if req.Token == "" {
		apierrors.WriteError(w, apierrors.ErrCodeMissingField, "token is required")
		return
	}
	if req.OrderID == "" {
		apierrors.WriteError(w, apierrors.ErrCodeMissingField, "orderId is required")
		return
	}

	resp, err := h.gateway.InitPayment(r.Context(), konnect.InitPaymentRequest{
		Amount:      req.Amount,
		Token:       req.Token,
		OrderID:     req.OrderID,
		Description: req.Description,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("order_id", req.OrderID).
			Msg("payments.init.gateway_failed")
		apierrors.WriteError(w, apierrors.ErrCodeGatewayError, "payment gateway request failed")
		return
	}

	log.Info().
		Str("payment_reference", resp.PaymentRef).
		Str("order_id", req.OrderID).
		Msg("payments.init.created")

	responders.JSON(w, http.StatusOK, initPaymentResponse{
		PaymentRef: resp.PaymentRef,
		PayURL:     resp.PayURL,
	})
}

// getPayment proxies a payment status lookup to the gateway, for support
// staff checking why an invoice has not flipped to paid.
func (h *handlers) getPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if !h.cfg.GatewayConfigured() {
		log.Error().Msg("payments.get.gateway_not_configured")
		apierrors.WriteError(w, apierrors.ErrCodeConfigError, "payment gateway is not configured")
		return
	}

	paymentRef := chi.URLParam(r, "paymentRef")

	payment, err := h.gateway.GetPayment(r.Context(), paymentRef)
	if err != nil {
		var apiErr *konnect.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			apierrors.WriteError(w, apierrors.ErrCodePaymentNotFound, "payment not found")
			return
		}
		log.Error().
			Err(err).
			Str("payment_reference", paymentRef).
			Msg("payments.get.gateway_failed")
		apierrors.WriteError(w, apierrors.ErrCodeGatewayError, "payment gateway request failed")
		return
	}

	responders.JSON(w, http.StatusOK, payment)
}
