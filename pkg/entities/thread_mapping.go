package entities

import "github.com/Jacobbrewer1/warden/pkg/custom"

// MappingStatus is the status of a thread mapping.
type MappingStatus string

const (
	// MappingActive is a mapping whose thread still exists on discord.
	MappingActive MappingStatus = "active"

	// MappingDeleted is a mapping whose thread was found missing by the
	// reconciliation job.
	MappingDeleted MappingStatus = "deleted"
)

// ThreadMapping maps a discord thread to a ticket. It is used to route
// inbound discord events to the right ticket without scanning the ticket
// collection.
type ThreadMapping struct {
	// ThreadID is the ID of the discord thread.
	ThreadID string `json:"thread_id" bson:"thread_id"`

	// TicketID is the number of the ticket the thread belongs to.
	TicketID int `json:"ticket_id" bson:"ticket_id"`

	// ChannelID is the ID of the parent channel of the thread.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// GuildID is the ID of the guild the thread is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Status is the status of the mapping.
	Status MappingStatus `json:"status" bson:"status"`

	// CreatedAt is the time the mapping was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}
