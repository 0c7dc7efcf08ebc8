package lifecycle

import (
	"errors"

	"github.com/Jacobbrewer1/warden/pkg/entities"
)

// Action is a staff- or system-initiated ticket action.
type Action string

const (
	// ActionClaim assigns an open ticket to the actor.
	ActionClaim Action = "claim"

	// ActionReassign moves an in-progress ticket to another assignee.
	ActionReassign Action = "reassign"

	// ActionPending marks a ticket as waiting on the requester.
	ActionPending Action = "pending"

	// ActionClose closes a ticket and records its resolution.
	ActionClose Action = "close"

	// ActionReopen reopens a closed, resolved or orphaned ticket.
	ActionReopen Action = "reopen"
)

var (
	// ErrInvalidTransition is returned when an action is not legal for the
	// ticket's current status. Nothing is mutated.
	ErrInvalidTransition = errors.New("invalid ticket transition")

	// ErrAlreadyClaimed is returned when claiming a ticket someone already
	// holds. Unlike closing a closed ticket, this is a conflict the actor
	// must see, not a harmless repeat.
	ErrAlreadyClaimed = errors.New("ticket already claimed")

	// ErrMissingAssignee is returned when reassigning without a target.
	// Accepting an empty assignee would silently unassign the ticket.
	ErrMissingAssignee = errors.New("reassign requires an assignee")
)

// allowedFrom is the transition table: the statuses each action may be
// applied from.
var allowedFrom = map[Action][]entities.Status{
	ActionClaim:    {entities.StatusOpen},
	ActionReassign: {entities.StatusInProgress},
	ActionPending:  {entities.StatusOpen, entities.StatusInProgress, entities.StatusPending},
	ActionClose:    {entities.StatusOpen, entities.StatusInProgress, entities.StatusPending},
	ActionReopen:   {entities.StatusClosed, entities.StatusResolved, entities.StatusOrphaned},
}

// canApply reports whether the action is legal for a ticket in the given
// status.
func canApply(action Action, status entities.Status) bool {
	for _, s := range allowedFrom[action] {
		if s == status {
			return true
		}
	}
	return false
}
