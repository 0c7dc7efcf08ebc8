package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const configDalName = "config_dal"

// ConfigDal is the data access layer for per-guild ticketing configuration.
type ConfigDal interface {
	// SaveConfig saves a guild configuration.
	SaveConfig(ctx context.Context, cfg *entities.GuildConfig) error

	// GetConfig gets the configuration for a guild. A guild without a stored
	// configuration gets the defaults.
	GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// ListAutoCloseEnabled lists the configurations with auto-close turned on.
	ListAutoCloseEnabled(ctx context.Context) ([]*entities.GuildConfig, error)
}

type configDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewConfigDal creates a new guild configuration data access layer.
func NewConfigDal(logger *slog.Logger) ConfigDal {
	l := logger.With(slog.String(logging.KeyDal, configDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &configDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *configDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collConfigs)
}

func (d *configDal) SaveConfig(ctx context.Context, cfg *entities.GuildConfig) error {
	t := observe(configDalName, "save_config", collConfigs)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, bson.M{"guild_id": cfg.GuildID}, bson.M{"$set": cfg}, opts)
	if err != nil {
		return fmt.Errorf("error updating guild config: %w", err)
	}
	return nil
}

func (d *configDal) GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	t := observe(configDalName, "get_config", collConfigs)
	defer t.ObserveDuration()

	cfg := new(entities.GuildConfig)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID}).Decode(cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Created lazily with defaults when a guild has not been set up.
		return entities.DefaultGuildConfig(guildID), nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

func (d *configDal) ListAutoCloseEnabled(ctx context.Context) ([]*entities.GuildConfig, error) {
	t := observe(configDalName, "list_auto_close_enabled", collConfigs)
	defer t.ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{"auto_close_enabled": true})
	if err != nil {
		return nil, fmt.Errorf("error listing guild configs: %w", err)
	}

	var cfgs []*entities.GuildConfig
	if err := cur.All(ctx, &cfgs); err != nil {
		return nil, fmt.Errorf("error decoding guild configs: %w", err)
	}
	return cfgs, nil
}
