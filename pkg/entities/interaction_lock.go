package entities

import "github.com/Jacobbrewer1/warden/pkg/custom"

// InteractionLock is a write-once row recording that an inbound discord
// interaction has been handled. Discord may redeliver an interaction (e.g.
// on an acknowledgement timeout); the existence of a lock row for an
// interaction ID means "already handled". Rows are never updated.
type InteractionLock struct {
	// InteractionID is the unique ID of the interaction.
	InteractionID string `json:"interaction_id" bson:"interaction_id"`

	// UserID is the discord user that triggered the interaction.
	UserID string `json:"user_id" bson:"user_id"`

	// Action is the action the interaction requested.
	Action string `json:"action" bson:"action"`

	// CreatedAt is the time the lock was claimed.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}
