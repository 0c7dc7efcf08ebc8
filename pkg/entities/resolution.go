package entities

import "github.com/Jacobbrewer1/warden/pkg/custom"

// ResolutionType categorises how a ticket was closed.
type ResolutionType string

const (
	// ResolutionResolved is a ticket closed because the issue was fixed.
	ResolutionResolved ResolutionType = "resolved"

	// ResolutionClosed is a ticket closed without a fix.
	ResolutionClosed ResolutionType = "closed"

	// ResolutionAutoClosed is a ticket closed by the auto-close job for
	// inactivity.
	ResolutionAutoClosed ResolutionType = "auto_closed"
)

// Resolution is the terminal annotation written exactly once when a ticket
// is closed or resolved via an explicit closure action. Orphaning a ticket
// does not create a resolution.
type Resolution struct {
	// TicketID is the number of the ticket.
	TicketID int `json:"ticket_id" bson:"ticket_id"`

	// GuildID is the guild the ticket belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Type is how the ticket was closed.
	Type ResolutionType `json:"type" bson:"type"`

	// Notes is the closure notes provided by the actor.
	Notes string `json:"notes,omitempty" bson:"notes,omitempty"`

	// ResolvedBy is the discord user ID that closed the ticket, or "system".
	ResolvedBy string `json:"resolved_by" bson:"resolved_by"`

	// CreatedAt is the time the ticket was closed.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}
