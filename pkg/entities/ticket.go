package entities

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/warden/pkg/custom"
)

// Status is the lifecycle status of a ticket.
type Status string

const (
	// StatusOpen is a ticket that is awaiting staff.
	StatusOpen Status = "open"

	// StatusInProgress is a ticket that has been claimed by a staff member.
	StatusInProgress Status = "in_progress"

	// StatusPending is a ticket waiting on the requester.
	StatusPending Status = "pending"

	// StatusOrphaned is a ticket whose discord thread has gone missing. It is
	// recoverable, not terminal.
	StatusOrphaned Status = "orphaned"

	// StatusResolved is a ticket closed with a resolution.
	StatusResolved Status = "resolved"

	// StatusClosed is a ticket that has been closed.
	StatusClosed Status = "closed"
)

// IsTerminal reports whether the status ends the normal flow of a ticket.
// Orphaned tickets are degraded but recoverable, so they are not terminal.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// Priority is the priority of a ticket.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority parses a priority string, falling back to the given default
// when the input is empty or unknown.
func ParsePriority(s string, def Priority) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityNormal:
		return PriorityNormal
	case PriorityHigh:
		return PriorityHigh
	case PriorityUrgent:
		return PriorityUrgent
	default:
		return def
	}
}

// Ticket is a support ticket. The ticket record is the source of truth for
// the ticket lifecycle; the discord thread is a best-effort mirror of it.
type Ticket struct {
	// ID is the number of the ticket. Ticket numbers count up per guild.
	ID int `json:"id" bson:"id"`

	// GuildID is the ID of the guild that the ticket belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Title is the short summary provided by the creator.
	Title string `json:"title" bson:"title"`

	// Description is the long-form description provided by the creator.
	Description string `json:"description" bson:"description"`

	// Status is the lifecycle status of the ticket.
	Status Status `json:"status" bson:"status"`

	// Priority is the priority of the ticket.
	Priority Priority `json:"priority" bson:"priority"`

	// CategoryID is the ID of the ticket category, if any.
	CategoryID string `json:"category_id,omitempty" bson:"category_id,omitempty"`

	// CreatorID is the discord user ID of the user that opened the ticket.
	CreatorID string `json:"creator_id" bson:"creator_id"`

	// AssigneeID is the discord user ID of the staff member the ticket is
	// assigned to, once claimed.
	AssigneeID string `json:"assignee_id,omitempty" bson:"assignee_id,omitempty"`

	// ThreadID is the ID of the discord thread mirroring this ticket. Empty
	// when thread provisioning failed or has not happened yet.
	ThreadID string `json:"thread_id,omitempty" bson:"thread_id,omitempty"`

	// ChannelID is the ID of the parent channel the thread was created under.
	ChannelID string `json:"channel_id,omitempty" bson:"channel_id,omitempty"`

	// AutoCloseWarnedAt is when the inactivity warning was posted. Cleared on
	// any activity so the warning is only sent once per quiet period.
	AutoCloseWarnedAt custom.Datetime `json:"auto_close_warned_at,omitempty" bson:"auto_close_warned_at,omitempty"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// UpdatedAt is the time of the last activity on the ticket.
	UpdatedAt custom.Datetime `json:"updated_at" bson:"updated_at"`

	// ClosedAt is the time that the ticket was closed or resolved.
	ClosedAt custom.Datetime `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// Name returns the deterministic thread name for the ticket. Re-provisioning
// after a cache loss produces the same name rather than a duplicate.
func (t *Ticket) Name() string {
	title := strings.TrimSpace(t.Title)
	// Truncate on a rune boundary; byte slicing would split a multi-byte
	// character and produce an invalid thread name.
	if runes := []rune(title); len(runes) > 40 {
		title = string(runes[:40])
	}
	if title == "" {
		return fmt.Sprintf("ticket-%d", t.ID)
	}
	return fmt.Sprintf("%d-%s", t.ID, title)
}
