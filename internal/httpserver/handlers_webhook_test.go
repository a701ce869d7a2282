package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/gestfact/payments/internal/config"
	"github.com/gestfact/payments/internal/konnect"
	"github.com/gestfact/payments/internal/metrics"
	"github.com/gestfact/payments/internal/ratelimit"
	"github.com/gestfact/payments/internal/storage"
	"github.com/gestfact/payments/internal/webhook"
)

const testSecret = "whsec-test"

// recordingStore counts write calls so tests can assert that rejected
// requests never touch storage.
type recordingStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	updates int
	inserts int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *recordingStore) UpdateInvoiceStatus(ctx context.Context, numero string, status storage.InvoiceStatus) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.MemoryStore.UpdateInvoiceStatus(ctx, numero, status)
}

func (s *recordingStore) InsertAuditLog(ctx context.Context, entry storage.AuditLogEntry) error {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	return s.MemoryStore.InsertAuditLog(ctx, entry)
}

func (s *recordingStore) writeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates + s.inserts
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Address = ":0"
	cfg.Server.CORSAllowedOrigins = []string{"*"}
	cfg.Konnect.APIKey = "key-test"
	cfg.Konnect.WebhookSecret = testSecret
	cfg.Konnect.BaseURL = "http://konnect.invalid"
	return cfg
}

func newTestServer(cfg *config.Config, store storage.Store, limiter ratelimit.Limiter) *Server {
	m := metrics.New(prometheus.NewRegistry())
	if limiter == nil {
		limiter = ratelimit.NewFixedWindow(50, time.Minute)
	}
	gateway := konnect.New(konnect.Config{
		APIKey:  cfg.Konnect.APIKey,
		BaseURL: cfg.Konnect.BaseURL,
	}, m, zerolog.Nop())
	processor := webhook.NewProcessor(store, m)
	return New(cfg, store, limiter, gateway, processor, m, zerolog.Nop())
}

func signedWebhookRequest(body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/konnect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(body, testSecret))
	req.Header.Set("Origin", "https://gateway.konnect.network")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_CompletedPayment(t *testing.T) {
	store := newRecordingStore()
	store.SeedInvoice("FAC-2025-009", storage.StatusSent)
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	rec := serve(s, signedWebhookRequest(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}

	if status, _ := store.InvoiceStatusFor("FAC-2025-009"); status != storage.StatusPaid {
		t.Errorf("invoice status = %q, want paid", status)
	}
	if store.AuditLogLen() != 1 {
		t.Errorf("audit rows = %d, want 1", store.AuditLogLen())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing CORS header on success response")
	}
}

func TestWebhook_DuplicateDeliveryIsIdempotent(t *testing.T) {
	store := newRecordingStore()
	store.SeedInvoice("FAC-2025-009", storage.StatusSent)
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	for i := 0; i < 2; i++ {
		rec := serve(s, signedWebhookRequest(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d", i+1, rec.Code)
		}
	}

	if store.AuditLogLen() != 1 {
		t.Errorf("audit rows = %d, want 1", store.AuditLogLen())
	}
}

func TestWebhook_InvalidOrderIDRejectedBeforeAnyWrite(t *testing.T) {
	store := newRecordingStore()
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-1'; DROP TABLE factures;--"}}`)
	rec := serve(s, signedWebhookRequest(body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestWebhook_MalformedJSON(t *testing.T) {
	store := newRecordingStore()
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":`)
	rec := serve(s, signedWebhookRequest(body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	store := newRecordingStore()
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	req := signedWebhookRequest(body)
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(body, "wrong-secret"))
	rec := serve(s, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestWebhook_UnsignedAcceptedByDefault(t *testing.T) {
	store := newRecordingStore()
	store.SeedInvoice("FAC-2025-009", storage.StatusSent)
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	req := signedWebhookRequest(body)
	req.Header.Del(webhook.SignatureHeader)
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (unsigned webhooks are accepted with a warning)", rec.Code)
	}
	if store.AuditLogLen() != 1 {
		t.Errorf("audit rows = %d, want 1", store.AuditLogLen())
	}
}

func TestWebhook_UnsignedRejectedInStrictMode(t *testing.T) {
	cfg := testConfig()
	cfg.Webhook.RequireSignature = true
	store := newRecordingStore()
	s := newTestServer(cfg, store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	req := signedWebhookRequest(body)
	req.Header.Del(webhook.SignatureHeader)
	rec := serve(s, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestWebhook_NoSecretSkipsVerification(t *testing.T) {
	cfg := testConfig()
	cfg.Konnect.WebhookSecret = ""
	store := newRecordingStore()
	store.SeedInvoice("FAC-2025-009", storage.StatusSent)
	s := newTestServer(cfg, store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	req := signedWebhookRequest(body)
	req.Header.Del(webhook.SignatureHeader)
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	store := newRecordingStore()
	s := newTestServer(testConfig(), store, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhook/konnect", nil)
	req.Header.Set("Origin", "https://gateway.konnect.network")
	rec := serve(s, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing CORS header on 405 response")
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestWebhook_PlainOptionsIsNoContent(t *testing.T) {
	s := newTestServer(testConfig(), newRecordingStore(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/webhook/konnect", nil)
	rec := serve(s, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestWebhook_RateLimitExceeded(t *testing.T) {
	store := newRecordingStore()
	store.SeedInvoice("FAC-2025-009", storage.StatusSent)
	limiter := ratelimit.NewFixedWindow(2, time.Minute)
	s := newTestServer(testConfig(), store, limiter)

	body := []byte(`{"payment":{"reference":"pay-123","status":"pending","orderId":"FAC-2025-009"}}`)
	for i := 0; i < 2; i++ {
		if rec := serve(s, signedWebhookRequest(body)); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}

	rec := serve(s, signedWebhookRequest(body))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestWebhook_MissingAPIKeyFailsClosed(t *testing.T) {
	cfg := testConfig()
	cfg.Konnect.APIKey = ""
	store := newRecordingStore()
	s := newTestServer(cfg, store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"completed","orderId":"FAC-2025-009"}}`)
	rec := serve(s, signedWebhookRequest(body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestWebhook_PendingLeavesInvoiceUntouched(t *testing.T) {
	store := newRecordingStore()
	store.SeedInvoice("FAC-2025-009", storage.StatusSent)
	s := newTestServer(testConfig(), store, nil)

	body := []byte(`{"payment":{"reference":"pay-123","status":"pending","orderId":"FAC-2025-009"}}`)
	rec := serve(s, signedWebhookRequest(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if status, _ := store.InvoiceStatusFor("FAC-2025-009"); status != storage.StatusSent {
		t.Errorf("invoice status = %q, want sent", status)
	}
	if store.AuditLogLen() != 1 {
		t.Error("pending notification still gets an audit row")
	}
}
