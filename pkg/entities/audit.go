package entities

import "github.com/Jacobbrewer1/warden/pkg/custom"

// AuditAction is the action recorded in an audit log entry.
type AuditAction string

const (
	AuditCreated    AuditAction = "created"
	AuditClaimed    AuditAction = "claimed"
	AuditReassigned AuditAction = "reassigned"
	AuditPending    AuditAction = "pending"
	AuditClosed     AuditAction = "closed"
	AuditResolved   AuditAction = "resolved"
	AuditReopened   AuditAction = "reopened"
	AuditOrphaned   AuditAction = "orphaned"
)

// AuditLogEntry is an immutable record of a single ticket state change. The
// audit trail is append-only and is the source of truth for what happened to
// a ticket and when, independent of the ticket's current fields.
type AuditLogEntry struct {
	// TicketID is the number of the ticket the entry belongs to.
	TicketID int `json:"ticket_id" bson:"ticket_id"`

	// GuildID is the guild the ticket belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Action is what happened.
	Action AuditAction `json:"action" bson:"action"`

	// Actor is the discord user ID that performed the action, or "system"
	// for background jobs.
	Actor string `json:"actor" bson:"actor"`

	// Details is freeform context for the action.
	Details string `json:"details,omitempty" bson:"details,omitempty"`

	// CreatedAt is the time the action happened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// SystemActor is the actor recorded for actions taken by background jobs.
const SystemActor = "system"
