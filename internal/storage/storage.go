package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested entity is missing from the store.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate is returned when an insert collides with an existing unique key.
// Callers that want insert-if-absent semantics treat it as success.
var ErrDuplicate = errors.New("storage: duplicate entry")

// Store captures the persistence requirements of webhook processing.
//
// UpdateInvoiceStatus performs a single update-by-unique-business-key write:
// the invoice is looked up by its human-facing number (numero), never by an
// internal identifier, and only the status column is touched.
//
// InsertAuditLog appends one audit record per webhook call. The reference
// carries a uniqueness constraint; inserting a reference that already exists
// returns ErrDuplicate.
type Store interface {
	UpdateInvoiceStatus(ctx context.Context, numero string, status InvoiceStatus) error
	InsertAuditLog(ctx context.Context, entry AuditLogEntry) error
	Close() error
}

// StoreConfig holds records store configuration.
type StoreConfig struct {
	Backend         string // "memory", "postgres", or "mongodb"
	PostgresURL     string
	MongoDBURL      string
	MongoDBDatabase string

	InvoicesTableName string // default: "factures"
	AuditLogTableName string // default: "paiements_webhook_log"

	PoolMaxOpenConns    int
	PoolMaxIdleConns    int
	PoolConnMaxLifetime time.Duration
}

// NewStore creates a Store instance based on the provided configuration.
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		// Memory backend loses invoice and audit state on restart.
		// Fine for development; production should use postgres or mongodb.
		return NewMemoryStore(), nil
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires postgres_url")
		}
		return NewPostgresStore(cfg)
	case "mongodb":
		if cfg.MongoDBURL == "" {
			return nil, fmt.Errorf("mongodb backend requires mongodb_url")
		}
		if cfg.MongoDBDatabase == "" {
			return nil, fmt.Errorf("mongodb backend requires mongodb_database")
		}
		return NewMongoDBStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// MemoryStore is an in-memory Store implementation suitable for tests and
// local development.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]InvoiceStatus // numero -> statut
	auditLog map[string]AuditLogEntry // reference -> entry
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]InvoiceStatus),
		auditLog: make(map[string]AuditLogEntry),
	}
}

// SeedInvoice inserts an invoice record. Used by tests and local setups; in
// production the invoicing application owns invoice creation.
func (m *MemoryStore) SeedInvoice(numero string, status InvoiceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[numero] = status
}

// InvoiceStatusFor returns the current status of an invoice.
func (m *MemoryStore) InvoiceStatusFor(numero string) (InvoiceStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.invoices[numero]
	return status, ok
}

// AuditLogLen returns the number of audit records.
func (m *MemoryStore) AuditLogLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.auditLog)
}

// UpdateInvoiceStatus sets the status of the invoice identified by numero.
func (m *MemoryStore) UpdateInvoiceStatus(_ context.Context, numero string, status InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invoices[numero]; !ok {
		return ErrNotFound
	}
	m.invoices[numero] = status
	return nil
}

// InsertAuditLog appends an audit record, enforcing reference uniqueness.
func (m *MemoryStore) InsertAuditLog(_ context.Context, entry AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.auditLog[entry.Reference]; exists {
		return ErrDuplicate
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}
	m.auditLog[entry.Reference] = entry
	return nil
}

// Close implements the Store interface.
func (m *MemoryStore) Close() error {
	return nil
}
