package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditDalName = "audit_dal"

// AuditDal is the data access layer for the ticket audit trail. The trail is
// append-only; entries are never updated or deleted.
type AuditDal interface {
	// AppendEntry appends an audit log entry.
	AppendEntry(ctx context.Context, e *entities.AuditLogEntry) error

	// ListEntries lists the audit trail for a ticket, oldest first.
	ListEntries(ctx context.Context, guildID string, ticketID int) ([]*entities.AuditLogEntry, error)
}

type auditDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewAuditDal creates a new audit log data access layer.
func NewAuditDal(logger *slog.Logger) AuditDal {
	l := logger.With(slog.String(logging.KeyDal, auditDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &auditDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *auditDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collAuditLog)
}

func (d *auditDal) AppendEntry(ctx context.Context, e *entities.AuditLogEntry) error {
	t := observe(auditDalName, "append_entry", collAuditLog)
	defer t.ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, e); err != nil {
		return fmt.Errorf("error inserting audit entry: %w", err)
	}
	return nil
}

func (d *auditDal) ListEntries(ctx context.Context, guildID string, ticketID int) ([]*entities.AuditLogEntry, error) {
	t := observe(auditDalName, "list_entries", collAuditLog)
	defer t.ObserveDuration()

	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := d.collection().Find(ctx, bson.M{"guild_id": guildID, "ticket_id": ticketID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing audit entries: %w", err)
	}

	var entries []*entities.AuditLogEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding audit entries: %w", err)
	}
	return entries, nil
}
