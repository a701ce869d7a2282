package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

const queryTimeout = 5 * time.Second

// PostgresStore implements Store using PostgreSQL via lib/pq.
//
// The invoices table is owned by the invoicing application and is only ever
// updated here; the audit-log table belongs to this service and is created on
// startup if missing.
type PostgresStore struct {
	db                *sql.DB
	invoicesTableName string
	auditLogTableName string
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(cfg StoreConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		// Close() error during initialization cleanup is not actionable;
		// the connection failure is the error worth returning.
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	applyPoolSettings(db, cfg)

	store := &PostgresStore{
		db:                db,
		invoicesTableName: cfg.InvoicesTableName,
		auditLogTableName: cfg.AuditLogTableName,
	}
	if store.invoicesTableName == "" {
		store.invoicesTableName = "factures"
	}
	if store.auditLogTableName == "" {
		store.auditLogTableName = "paiements_webhook_log"
	}

	if err := store.createAuditLogTable(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func applyPoolSettings(db *sql.DB, cfg StoreConfig) {
	maxOpen := cfg.PoolMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.PoolMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	maxLifetime := cfg.PoolConnMaxLifetime
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}

// createAuditLogTable creates the webhook audit-log table if it doesn't exist.
// The UNIQUE constraint on reference is what makes webhook processing
// idempotent across gateway retries.
func (s *PostgresStore) createAuditLogTable() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			reference TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			numero_commande TEXT,
			raw_payload JSONB NOT NULL,
			source_ip TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_received ON %s(received_at DESC);
		CREATE INDEX IF NOT EXISTS idx_%s_numero ON %s(numero_commande) WHERE numero_commande IS NOT NULL;
	`,
		s.auditLogTableName,
		s.auditLogTableName, s.auditLogTableName,
		s.auditLogTableName, s.auditLogTableName,
	)

	_, err := s.db.Exec(schema)
	return err
}

// UpdateInvoiceStatus sets the statut column of the invoice whose numero matches.
func (s *PostgresStore) UpdateInvoiceStatus(ctx context.Context, numero string, status InvoiceStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET statut = $1 WHERE numero = $2`, s.invoicesTableName)

	res, err := s.db.ExecContext(ctx, query, string(status), numero)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice status: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertAuditLog appends one audit record, translating a unique violation on
// the reference column into ErrDuplicate.
func (s *PostgresStore) InsertAuditLog(ctx context.Context, entry AuditLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (reference, status, numero_commande, raw_payload, source_ip, received_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
	`, s.auditLogTableName)

	_, err := s.db.ExecContext(ctx, query,
		entry.Reference, entry.Status, entry.InvoiceNumber,
		string(entry.RawPayload), entry.SourceIP, entry.ReceivedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
