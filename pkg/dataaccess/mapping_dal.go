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

const mappingDalName = "mapping_dal"

// MappingDal is the data access layer for thread-to-ticket mappings.
type MappingDal interface {
	// SaveMapping saves a mapping, inserting or replacing by thread ID.
	SaveMapping(ctx context.Context, m *entities.ThreadMapping) error

	// GetMappingByThread gets the mapping for a thread.
	GetMappingByThread(ctx context.Context, threadID string) (*entities.ThreadMapping, error)

	// ListActiveMappings lists all mappings whose thread has not been found
	// missing.
	ListActiveMappings(ctx context.Context) ([]*entities.ThreadMapping, error)

	// MarkDeleted marks the mapping for a thread as deleted.
	MarkDeleted(ctx context.Context, threadID string) error
}

type mappingDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewMappingDal creates a new thread mapping data access layer.
func NewMappingDal(logger *slog.Logger) MappingDal {
	l := logger.With(slog.String(logging.KeyDal, mappingDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &mappingDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *mappingDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collMappings)
}

func (d *mappingDal) SaveMapping(ctx context.Context, m *entities.ThreadMapping) error {
	t := observe(mappingDalName, "save_mapping", collMappings)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, bson.M{"thread_id": m.ThreadID}, bson.M{"$set": m}, opts)
	if err != nil {
		return fmt.Errorf("error updating mapping: %w", err)
	}
	return nil
}

func (d *mappingDal) GetMappingByThread(ctx context.Context, threadID string) (*entities.ThreadMapping, error) {
	t := observe(mappingDalName, "get_mapping_by_thread", collMappings)
	defer t.ObserveDuration()

	var m entities.ThreadMapping
	if err := d.collection().FindOne(ctx, bson.M{"thread_id": threadID}).Decode(&m); err != nil {
		return nil, fmt.Errorf("error getting mapping: %w", err)
	}
	return &m, nil
}

func (d *mappingDal) ListActiveMappings(ctx context.Context) ([]*entities.ThreadMapping, error) {
	t := observe(mappingDalName, "list_active_mappings", collMappings)
	defer t.ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{"status": entities.MappingActive})
	if err != nil {
		return nil, fmt.Errorf("error listing mappings: %w", err)
	}

	var mappings []*entities.ThreadMapping
	if err := cur.All(ctx, &mappings); err != nil {
		return nil, fmt.Errorf("error decoding mappings: %w", err)
	}
	return mappings, nil
}

func (d *mappingDal) MarkDeleted(ctx context.Context, threadID string) error {
	t := observe(mappingDalName, "mark_deleted", collMappings)
	defer t.ObserveDuration()

	_, err := d.collection().UpdateOne(ctx,
		bson.M{"thread_id": threadID},
		bson.M{"$set": bson.M{"status": entities.MappingDeleted}})
	if err != nil {
		return fmt.Errorf("error marking mapping deleted: %w", err)
	}
	return nil
}
