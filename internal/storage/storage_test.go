package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_UpdateInvoiceStatus(t *testing.T) {
	store := NewMemoryStore()
	store.SeedInvoice("FAC-2025-001", StatusSent)

	if err := store.UpdateInvoiceStatus(context.Background(), "FAC-2025-001", StatusPaid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, ok := store.InvoiceStatusFor("FAC-2025-001")
	if !ok || status != StatusPaid {
		t.Errorf("expected status paid, got %q (found=%v)", status, ok)
	}
}

func TestMemoryStore_UpdateInvoiceStatus_NotFound(t *testing.T) {
	store := NewMemoryStore()

	err := store.UpdateInvoiceStatus(context.Background(), "FAC-2025-404", StatusPaid)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_InsertAuditLog_DuplicateReference(t *testing.T) {
	store := NewMemoryStore()
	entry := AuditLogEntry{
		Reference:  "pay-123",
		Status:     "completed",
		RawPayload: []byte(`{"payment":{"reference":"pay-123","status":"completed"}}`),
		SourceIP:   "203.0.113.7",
	}

	if err := store.InsertAuditLog(context.Background(), entry); err != nil {
		t.Fatalf("first insert: unexpected error: %v", err)
	}

	err := store.InsertAuditLog(context.Background(), entry)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second insert: expected ErrDuplicate, got %v", err)
	}

	if got := store.AuditLogLen(); got != 1 {
		t.Errorf("expected exactly one audit row, got %d", got)
	}
}

func TestNewStore_UnknownBackend(t *testing.T) {
	_, err := NewStore(StoreConfig{Backend: "cassandra"})
	if err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewStore_PostgresRequiresURL(t *testing.T) {
	_, err := NewStore(StoreConfig{Backend: "postgres"})
	if err == nil {
		t.Error("expected error when postgres_url is missing")
	}
}

func TestNewStore_MongoRequiresDatabase(t *testing.T) {
	_, err := NewStore(StoreConfig{Backend: "mongodb", MongoDBURL: "mongodb://localhost:27017"})
	if err == nil {
		t.Error("expected error when mongodb_database is missing")
	}
}
