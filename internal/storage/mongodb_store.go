package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBStore implements Store using MongoDB.
type MongoDBStore struct {
	client   *mongo.Client
	invoices *mongo.Collection
	auditLog *mongo.Collection
}

// mongoAuditEntry is the persisted shape of an AuditLogEntry.
type mongoAuditEntry struct {
	Reference     string    `bson:"reference"`
	Status        string    `bson:"status"`
	InvoiceNumber string    `bson:"numero_commande,omitempty"`
	RawPayload    string    `bson:"raw_payload"`
	SourceIP      string    `bson:"source_ip"`
	ReceivedAt    time.Time `bson:"received_at"`
}

// NewMongoDBStore creates a new MongoDB-backed store and ensures the unique
// index on the audit-log reference field.
func NewMongoDBStore(cfg StoreConfig) (*MongoDBStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURL))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDBDatabase)

	invoicesName := cfg.InvoicesTableName
	if invoicesName == "" {
		invoicesName = "factures"
	}
	auditName := cfg.AuditLogTableName
	if auditName == "" {
		auditName = "paiements_webhook_log"
	}

	store := &MongoDBStore{
		client:   client,
		invoices: db.Collection(invoicesName),
		auditLog: db.Collection(auditName),
	}

	// Unique index on reference backs the idempotent-by-reference guarantee.
	_, err = store.auditLog.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "reference", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create audit log index: %w", err)
	}

	return store, nil
}

// UpdateInvoiceStatus sets the statut field of the invoice whose numero matches.
func (s *MongoDBStore) UpdateInvoiceStatus(ctx context.Context, numero string, status InvoiceStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.invoices.UpdateOne(ctx,
		bson.M{"numero": numero},
		bson.M{"$set": bson.M{"statut": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertAuditLog appends one audit record, translating a duplicate-key error
// on the reference index into ErrDuplicate.
func (s *MongoDBStore) InsertAuditLog(ctx context.Context, entry AuditLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}

	_, err := s.auditLog.InsertOne(ctx, mongoAuditEntry{
		Reference:     entry.Reference,
		Status:        entry.Status,
		InvoiceNumber: entry.InvoiceNumber,
		RawPayload:    string(entry.RawPayload),
		SourceIP:      entry.SourceIP,
		ReceivedAt:    entry.ReceivedAt.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Close disconnects the MongoDB client.
func (s *MongoDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
