package entities

import "strings"

// TicketCategory defines which dedicated channel a new ticket's thread is
// provisioned under. Categories are configured out of band; this core only
// reads them.
type TicketCategory struct {
	// ID is the ID of the category.
	ID string `json:"id" bson:"id"`

	// GuildID is the guild the category is scoped to. Empty means global.
	GuildID string `json:"guild_id,omitempty" bson:"guild_id,omitempty"`

	// Name is the display name of the category.
	Name string `json:"name" bson:"name"`

	// Enabled is whether the category accepts new tickets.
	Enabled bool `json:"enabled" bson:"enabled"`
}

// ChannelName derives the channel name for the category from its display
// name. The derivation is deterministic so that re-running the provisioner
// after a cache loss finds the existing channel instead of duplicating it.
func (c *TicketCategory) ChannelName() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Name)), " ", "-")
}
