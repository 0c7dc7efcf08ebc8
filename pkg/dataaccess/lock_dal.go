package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lockDalName = "lock_dal"

// LockDal is the data access layer for interaction deduplication locks.
//
// Discord may redeliver an interaction when it does not see an
// acknowledgement in time. The lock is a single atomic insert against a
// unique index on the interaction ID, not a read-then-write, so two
// redeliveries arriving concurrently cannot both claim it.
type LockDal interface {
	// TryClaim claims an interaction for processing. It returns true when
	// the caller should proceed and false when the interaction has already
	// been handled. Unexpected storage errors fail open so a storage blip
	// does not block legitimate actions; the anomaly is logged.
	TryClaim(ctx context.Context, interactionID, userID, action string) bool

	// EnsureIndexes creates the unique index the claim depends on. Run once
	// at startup.
	EnsureIndexes(ctx context.Context) error
}

type lockDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewLockDal creates a new interaction lock data access layer.
func NewLockDal(logger *slog.Logger) LockDal {
	l := logger.With(slog.String(logging.KeyDal, lockDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &lockDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *lockDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collLocks)
}

func (d *lockDal) EnsureIndexes(ctx context.Context) error {
	_, err := d.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"interaction_id": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating interaction lock index: %w", err)
	}
	return nil
}

func (d *lockDal) TryClaim(ctx context.Context, interactionID, userID, action string) bool {
	t := observe(lockDalName, "try_claim", collLocks)
	defer t.ObserveDuration()

	_, err := d.collection().InsertOne(ctx, &entities.InteractionLock{
		InteractionID: interactionID,
		UserID:        userID,
		Action:        action,
		CreatedAt:     custom.Now(),
	})
	switch {
	case err == nil:
		return true
	case mongo.IsDuplicateKeyError(err):
		d.l.Debug("Duplicate interaction suppressed",
			slog.String("interaction_id", interactionID),
			slog.String("action", action),
		)
		return false
	default:
		d.l.Error("Unexpected error claiming interaction, failing open",
			slog.String("interaction_id", interactionID),
			slog.String(logging.KeyError, err.Error()),
		)
		return true
	}
}
