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

const categoryDalName = "category_dal"

// CategoryDal is the data access layer for ticket categories. Categories are
// configured out of band; the ticket core only reads them.
type CategoryDal interface {
	// GetCategory gets a category by ID.
	GetCategory(ctx context.Context, id string) (*entities.TicketCategory, error)

	// ListCategories lists the enabled categories visible to a guild
	// (guild-scoped plus global).
	ListCategories(ctx context.Context, guildID string) ([]*entities.TicketCategory, error)
}

type categoryDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewCategoryDal creates a new category data access layer.
func NewCategoryDal(logger *slog.Logger) CategoryDal {
	l := logger.With(slog.String(logging.KeyDal, categoryDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &categoryDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *categoryDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collCategories)
}

func (d *categoryDal) GetCategory(ctx context.Context, id string) (*entities.TicketCategory, error) {
	t := observe(categoryDalName, "get_category", collCategories)
	defer t.ObserveDuration()

	var cat entities.TicketCategory
	if err := d.collection().FindOne(ctx, bson.M{"id": id}).Decode(&cat); err != nil {
		return nil, fmt.Errorf("error getting category: %w", err)
	}
	return &cat, nil
}

func (d *categoryDal) ListCategories(ctx context.Context, guildID string) ([]*entities.TicketCategory, error) {
	t := observe(categoryDalName, "list_categories", collCategories)
	defer t.ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{
		"enabled": true,
		"$or": []bson.M{
			{"guild_id": guildID},
			{"guild_id": bson.M{"$in": []any{nil, ""}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}

	var cats []*entities.TicketCategory
	if err := cur.All(ctx, &cats); err != nil {
		return nil, fmt.Errorf("error decoding categories: %w", err)
	}
	return cats, nil
}
