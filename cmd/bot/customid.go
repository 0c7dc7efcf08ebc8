package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Custom IDs carried on buttons and modals. They are namespaced so other
// components on a message can never be mistaken for ticket controls, and the
// action segment routes the interaction without any free-form matching.
const (
	// customIDPrefix namespaces every ticket control.
	customIDPrefix = "ticket"

	// ActionOpen is the open-ticket button on the setup message.
	ActionOpen = "open"

	// ActionCreate is the ticket creation modal submit.
	ActionCreate = "create"

	// ActionClaim is the claim button on a ticket thread message.
	ActionClaim = "claim"

	// ActionClose is the close button on a ticket thread message.
	ActionClose = "close"

	// ActionReopen is the reopen button on a ticket thread message.
	ActionReopen = "reopen"

	// ActionPending is the pending button on a ticket thread message.
	ActionPending = "pending"
)

// CustomID is a parsed ticket control ID of the form
// "ticket:<action>[:<ticketID>]". The ticket ID is advisory; handlers route
// through the thread mapping and only fall back to it.
type CustomID struct {
	// Action is the control action.
	Action string

	// TicketID is the ticket number baked into the control, or zero.
	TicketID int
}

// String renders the wire form of the custom ID.
func (c CustomID) String() string {
	if c.TicketID > 0 {
		return fmt.Sprintf("%s:%s:%d", customIDPrefix, c.Action, c.TicketID)
	}
	return fmt.Sprintf("%s:%s", customIDPrefix, c.Action)
}

// ParseCustomID parses a control custom ID. IDs outside the ticket namespace
// return an error so the dispatcher can ignore them.
func ParseCustomID(s string) (*CustomID, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || parts[0] != customIDPrefix {
		return nil, fmt.Errorf("not a ticket control: %q", s)
	}

	c := &CustomID{Action: parts[1]}
	if c.Action == "" {
		return nil, fmt.Errorf("missing action in custom ID: %q", s)
	}

	if len(parts) >= 3 && parts[2] != "" {
		id, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid ticket id in custom ID %q: %w", s, err)
		}
		c.TicketID = id
	}
	return c, nil
}
