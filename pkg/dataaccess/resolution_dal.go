package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const resolutionDalName = "resolution_dal"

// ResolutionDal is the data access layer for ticket resolutions.
type ResolutionDal interface {
	// SaveResolution inserts the resolution for a ticket closure.
	SaveResolution(ctx context.Context, r *entities.Resolution) error

	// GetResolution gets the most recent resolution for a ticket.
	GetResolution(ctx context.Context, guildID string, ticketID int) (*entities.Resolution, error)
}

type resolutionDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewResolutionDal creates a new resolution data access layer.
func NewResolutionDal(logger *slog.Logger) ResolutionDal {
	l := logger.With(slog.String(logging.KeyDal, resolutionDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &resolutionDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *resolutionDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collResolutions)
}

func (d *resolutionDal) SaveResolution(ctx context.Context, r *entities.Resolution) error {
	t := observe(resolutionDalName, "save_resolution", collResolutions)
	defer t.ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, r); err != nil {
		return fmt.Errorf("error inserting resolution: %w", err)
	}
	return nil
}

func (d *resolutionDal) GetResolution(ctx context.Context, guildID string, ticketID int) (*entities.Resolution, error) {
	t := observe(resolutionDalName, "get_resolution", collResolutions)
	defer t.ObserveDuration()

	var r entities.Resolution
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID, "ticket_id": ticketID}).Decode(&r)
	if err != nil {
		return nil, fmt.Errorf("error getting resolution: %w", err)
	}
	return &r, nil
}
