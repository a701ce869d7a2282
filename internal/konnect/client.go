// Package konnect is a thin client for the Konnect payment gateway API.
package konnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/gestfact/payments/internal/metrics"
)

const apiKeyHeader = "x-api-key"

// Config holds gateway connection settings.
type Config struct {
	APIKey   string
	BaseURL  string // e.g. https://api.konnect.network/api/v2
	WalletID string
	Timeout  time.Duration
}

// Client calls the Konnect REST API. Outbound calls run behind a circuit
// breaker so a degraded gateway fails fast instead of tying up request
// handlers for the full HTTP timeout.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("konnect: gateway returned %d: %s", e.StatusCode, e.Body)
}

// New creates a gateway client.
func New(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	breakerLog := log.With().Str("component", "konnect").Logger()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "konnect_api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerLog.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("konnect.breaker.state_change")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		metrics: m,
		log:     breakerLog,
	}
}

// InitPaymentRequest describes the payment to create on the gateway.
type InitPaymentRequest struct {
	Amount      int64  `json:"amount"` // millimes
	Token       string `json:"token"`  // currency, e.g. "TND", "EUR"
	OrderID     string `json:"orderId"`
	Description string `json:"description,omitempty"`
	WebhookURL  string `json:"webhook,omitempty"`
}

// InitPaymentResponse is the gateway's answer to a payment creation.
type InitPaymentResponse struct {
	PaymentRef string `json:"paymentRef"`
	PayURL     string `json:"payUrl"`
}

// Payment is the gateway's record of a payment.
type Payment struct {
	Reference string `json:"id"`
	Status    string `json:"status"`
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Token     string `json:"token"`
}

// InitPayment creates a payment session on the gateway and returns the
// hosted payment page URL.
func (c *Client) InitPayment(ctx context.Context, req InitPaymentRequest) (InitPaymentResponse, error) {
	body := struct {
		InitPaymentRequest
		ReceiverWalletID string `json:"receiverWalletId"`
	}{InitPaymentRequest: req, ReceiverWalletID: c.cfg.WalletID}

	var out InitPaymentResponse
	err := c.do(ctx, "init_payment", http.MethodPost, "/payments/init-payment", body, &out)
	if err != nil {
		return InitPaymentResponse{}, err
	}
	return out, nil
}

// GetPayment fetches the current gateway state of a payment by reference.
func (c *Client) GetPayment(ctx context.Context, paymentRef string) (Payment, error) {
	var out struct {
		Payment Payment `json:"payment"`
	}
	err := c.do(ctx, "get_payment", http.MethodGet, "/payments/"+paymentRef, nil, &out)
	if err != nil {
		return Payment{}, err
	}
	return out.Payment, nil
}

// do executes one gateway call through the circuit breaker, JSON in and out.
func (c *Client) do(ctx context.Context, operation, method, path string, in, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reqBody io.Reader
		if in != nil {
			encoded, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("konnect: encode request: %w", err)
			}
			reqBody = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("konnect: build request: %w", err)
		}
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("konnect: %s: %w", operation, err)
		}
		defer resp.Body.Close()

		// Bounded read: the gateway should never send large bodies, and an
		// error body gets echoed into logs.
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("konnect: read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, fmt.Errorf("konnect: decode response: %w", err)
			}
		}
		return nil, nil
	})

	switch {
	case err == nil:
		c.metrics.GatewayCallsTotal.WithLabelValues(operation, "ok").Inc()
		return nil
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		c.metrics.GatewayCallsTotal.WithLabelValues(operation, "breaker_open").Inc()
		c.log.Warn().Str("operation", operation).Msg("konnect.breaker.rejected")
		return fmt.Errorf("konnect: gateway unavailable: %w", err)
	default:
		c.metrics.GatewayCallsTotal.WithLabelValues(operation, "error").Inc()
		return err
	}
}
