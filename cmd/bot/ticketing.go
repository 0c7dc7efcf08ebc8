package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
)

const (
	// ClaimEmoji is the emoji that will be used for the claim button. (Ticket)
	ClaimEmoji = "\U0001F3AB"

	// CloseEmoji is the emoji that will be used for the close button. (Padlock)
	CloseEmoji = "\U0001F510"

	// ReopenEmoji is the emoji that will be used for the reopen button. (Open padlock)
	ReopenEmoji = "\U0001F513"

	// PendingEmoji is the emoji that will be used for the pending button. (Hourglass)
	PendingEmoji = "⏳"
)

const (
	// TicketCmdName is the command for controlling tickets.
	TicketCmdName = "ticket"

	// ClaimCmdName is the sub command for claiming a ticket.
	ClaimCmdName = "claim"

	// CloseCmdName is the sub command for closing a ticket.
	CloseCmdName = "close"

	// ReopenCmdName is the sub command for reopening a ticket.
	ReopenCmdName = "reopen"

	// PendingCmdName is the sub command for marking a ticket as waiting on
	// the requester.
	PendingCmdName = "pending"

	// ReassignCmdName is the sub command for moving a ticket to another
	// assignee.
	ReassignCmdName = "reassign"

	// userOptName is the reassign option naming the new assignee.
	userOptName = "user"

	// resolvedOptName is the close option marking the ticket resolved.
	resolvedOptName = "resolved"

	// notesOptName is the close option carrying closure notes.
	notesOptName = "notes"
)

const (
	// modalInputTitle is the custom ID of the title input on the creation
	// modal.
	modalInputTitle = "ticket_title"

	// modalInputDescription is the custom ID of the description input.
	modalInputDescription = "ticket_description"

	// modalInputPriority is the custom ID of the priority input.
	modalInputPriority = "ticket_priority"

	// modalInputCategory is the custom ID of the category input. The value
	// is matched against the guild's configured category names.
	modalInputCategory = "ticket_category"
)

// ticketCmd is the command for controlling tickets.
var ticketCmd = &discordgo.ApplicationCommand{
	Name:        TicketCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "This is the command for controlling tickets.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        ClaimCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This claims the ticket for the thread that the command was executed in.",
		},
		{
			Name:        CloseCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This closes the ticket for the thread that the command was executed in.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        resolvedOptName,
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Description: "Whether the ticket was resolved rather than just closed.",
				},
				{
					Name:        notesOptName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Closure notes recorded on the resolution.",
				},
			},
		},
		{
			Name:        ReopenCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This reopens the ticket for the thread that the command was executed in.",
		},
		{
			Name:        PendingCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This marks the ticket as waiting on the requester.",
		},
		{
			Name:        ReassignCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This moves the ticket for this thread to another assignee.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        userOptName,
					Type:        discordgo.ApplicationCommandOptionUser,
					Description: "The user to reassign the ticket to.",
					Required:    true,
				},
			},
		},
	},
}

// ticketCmdController routes the ticket sub commands onto the same
// processors the thread buttons use.
func ticketCmdController(_ IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	subCmd := i.ApplicationCommandData().Options[0].Name

	switch subCmd {
	case ClaimCmdName:
		return claimTicketHandler, nil
	case CloseCmdName:
		return slashCloseTicketHandler, nil
	case ReopenCmdName:
		return reopenTicketHandler, nil
	case PendingCmdName:
		return pendingTicketHandler, nil
	case ReassignCmdName:
		return reassignTicketHandler, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

func sendOpenTicketMessage(a IApp, channelID string) (*discordgo.Message, error) {
	const messageText = `How can we help?
Welcome to our tickets channel. If you have any questions or inquiries, please click on the button below to contact the staff by opening a ticket!`

	// The ticket emoji is the emoji that will be used for the button. (Envelope with arrow)
	const ticketEmoji = "\U0001F4E9"

	// Create the button with the ticket emoji.
	button := discordgo.Button{
		Label:    fmt.Sprintf("%s Open Ticket", ticketEmoji),
		Style:    discordgo.PrimaryButton,
		Disabled: false,
		Emoji:    discordgo.ComponentEmoji{},
		URL:      "",
		CustomID: CustomID{Action: ActionOpen}.String(),
	}

	// Create the message.
	message := discordgo.MessageSend{
		Content:         messageText,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					button,
				},
			},
		},
	}

	// Send the message.
	msg, err := a.Session().ChannelMessageSendComplex(channelID, &message)
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}

	return msg, nil
}

// openTicketModalHandler answers the open-ticket button with the creation
// modal. The rate limit is checked here so a limited user is refused before
// filling the form in.
func openTicketModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	userID := interactionUser(i)

	if status := a.Limiter().CheckLimit(userID); status.Limited {
		monitoring.TotalRateLimited.Inc()
		return respondEphemeral(a, i,
			fmt.Sprintf(messages.ErrUserRateLimited, fmt.Sprintf("<t:%d:R>", status.ResetAt.Unix())))
	}

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CustomID{Action: ActionCreate}.String(),
			Title:    "Open a ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  modalInputTitle,
							Label:     "Title",
							Style:     discordgo.TextInputShort,
							Required:  true,
							MaxLength: 100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    modalInputDescription,
							Label:       "Description",
							Style:       discordgo.TextInputParagraph,
							Required:    true,
							MaxLength:   2000,
							Placeholder: "Tell us what you need help with.",
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    modalInputPriority,
							Label:       "Priority",
							Style:       discordgo.TextInputShort,
							Required:    false,
							MaxLength:   10,
							Placeholder: "normal, high or urgent",
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    modalInputCategory,
							Label:       "Category",
							Style:       discordgo.TextInputShort,
							Required:    false,
							MaxLength:   100,
							Placeholder: "Category name, leave blank if unsure",
						},
					},
				},
			},
		},
	})
}

// createTicketHandler handles the creation modal submit.
func createTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	userID := interactionUser(i)

	// Re-checked on submit; the modal can sit open past the window.
	if status := a.Limiter().CheckLimit(userID); status.Limited {
		monitoring.TotalRateLimited.Inc()
		return respondEphemeral(a, i,
			fmt.Sprintf(messages.ErrUserRateLimited, fmt.Sprintf("<t:%d:R>", status.ResetAt.Unix())))
	}

	data := i.ModalSubmitData()

	ticket, err := a.Lifecycle().CreateTicket(contextOf(i), &lifecycle.CreateRequest{
		GuildID:          i.GuildID,
		Title:            modalInputValue(data, modalInputTitle),
		Description:      modalInputValue(data, modalInputDescription),
		CreatorID:        userID,
		PriorityOverride: modalInputValue(data, modalInputPriority),
		CategoryID:       resolveCategoryID(a, i.GuildID, modalInputValue(data, modalInputCategory)),
	})
	if err != nil {
		return fmt.Errorf("error creating ticket: %w", err)
	}

	a.Limiter().RecordCreation(userID)
	monitoring.TotalTicketsCreated.Inc()

	if ticket.ThreadID != "" {
		go func() {
			if err := sendTicketControls(a, ticket); err != nil {
				a.Log().Error("Error sending ticket controls", slog.String(logging.KeyError, err.Error()))
			}
		}()
	}

	threadField := "Provisioning, check back shortly."
	if ticket.ThreadID != "" {
		threadField = fmt.Sprintf("<#%s>", ticket.ThreadID)
	}

	// Respond to the interaction with the ticket details. This message is an
	// embedded ephemeral message.
	err = a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Ticket Created",
					Description: fmt.Sprintf("<@%s>, your ticket has been created.", userID),
					Color:       0x00ff00,
					Fields: []*discordgo.MessageEmbedField{
						{
							Name:   "Ticket",
							Value:  ticket.Name(),
							Inline: true,
						},
						{
							Name:   "Thread",
							Value:  threadField,
							Inline: true,
						},
						{
							Name:   "Priority",
							Value:  string(ticket.Priority),
							Inline: true,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// resolveCategoryID matches the free-text category name from the creation
// modal against the guild's configured categories. An unknown or empty name
// resolves to no category; the thread then lands in the admin fallback
// channel rather than failing the creation.
func resolveCategoryID(a IApp, guildID, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	cats, err := a.Categories().ListCategories(context.Background(), guildID)
	if err != nil {
		a.Log().Warn("Error listing ticket categories",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyError, err.Error()),
		)
		return ""
	}

	for _, cat := range cats {
		if strings.EqualFold(cat.Name, name) {
			return cat.ID
		}
	}

	a.Log().Debug("No category matched the requested name",
		slog.String(logging.KeyGuild, guildID),
		slog.String("category", name),
	)
	return ""
}

// sendTicketControls posts the staff control buttons into a fresh ticket
// thread.
func sendTicketControls(a IApp, ticket *entities.Ticket) error {
	msg := &discordgo.MessageSend{
		Content: "Staff controls for this ticket.",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Claim", ClaimEmoji),
						Style:    discordgo.PrimaryButton,
						Emoji:    discordgo.ComponentEmoji{},
						CustomID: CustomID{Action: ActionClaim, TicketID: ticket.ID}.String(),
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Pending", PendingEmoji),
						Style:    discordgo.SecondaryButton,
						Emoji:    discordgo.ComponentEmoji{},
						CustomID: CustomID{Action: ActionPending, TicketID: ticket.ID}.String(),
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Close", CloseEmoji),
						Style:    discordgo.SecondaryButton,
						Emoji:    discordgo.ComponentEmoji{},
						CustomID: CustomID{Action: ActionClose, TicketID: ticket.ID}.String(),
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Reopen", ReopenEmoji),
						Style:    discordgo.SuccessButton,
						Disabled: true,
						Emoji:    discordgo.ComponentEmoji{},
						CustomID: CustomID{Action: ActionReopen, TicketID: ticket.ID}.String(),
					},
				},
			},
		},
	}

	if _, err := a.Session().ChannelMessageSendComplex(ticket.ThreadID, msg); err != nil {
		return fmt.Errorf("error sending ticket controls: %w", err)
	}
	return nil
}

// ticketHere resolves the ticket bound to the channel the interaction came
// from, via the mapping cache.
func ticketHere(a IApp, i *discordgo.InteractionCreate) (*entities.ThreadMapping, bool) {
	m, ok := a.Mappings().Lookup(i.ChannelID)
	return m, ok
}

func claimTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	m, ok := ticketHere(a, i)
	if !ok {
		return respondEphemeral(a, i, messages.ErrUserNoTicketHere)
	}

	userID := interactionUser(i)

	_, err := a.Lifecycle().Transition(contextOf(i), m.GuildID, m.TicketID, lifecycle.ActionClaim, userID, nil)
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyClaimed):
		return respondEphemeral(a, i, "This ticket has already been claimed.")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return respondEphemeral(a, i, "This ticket cannot be claimed in its current state.")
	case err != nil:
		return fmt.Errorf("error claiming ticket: %w", err)
	}

	return respondPublic(a, i, fmt.Sprintf("<@%s> has claimed this ticket.", userID))
}

func closeTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	return closeTicket(a, i, new(lifecycle.Payload))
}

// slashCloseTicketHandler closes with the resolved flag and notes from the
// sub command options.
func slashCloseTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	payload := new(lifecycle.Payload)
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case resolvedOptName:
			payload.Resolved = opt.BoolValue()
		case notesOptName:
			payload.Notes = opt.StringValue()
		}
	}
	return closeTicket(a, i, payload)
}

func closeTicket(a IApp, i *discordgo.InteractionCreate, payload *lifecycle.Payload) error {
	m, ok := ticketHere(a, i)
	if !ok {
		return respondEphemeral(a, i, messages.ErrUserNoTicketHere)
	}

	userID := interactionUser(i)

	res, err := a.Lifecycle().Transition(contextOf(i), m.GuildID, m.TicketID, lifecycle.ActionClose, userID, payload)
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return respondEphemeral(a, i, "This ticket cannot be closed in its current state.")
	case err != nil:
		return fmt.Errorf("error closing ticket: %w", err)
	case res.NoOp:
		return respondEphemeral(a, i, "This ticket is already closed.")
	}

	verb := "closed"
	if payload.Resolved {
		verb = "resolved"
	}
	return respondPublic(a, i, fmt.Sprintf("<@%s> has %s this ticket.", userID, verb))
}

func reopenTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	m, ok := ticketHere(a, i)
	if !ok {
		return respondEphemeral(a, i, messages.ErrUserNoTicketHere)
	}

	userID := interactionUser(i)

	_, err := a.Lifecycle().Transition(contextOf(i), m.GuildID, m.TicketID, lifecycle.ActionReopen, userID, nil)
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return respondEphemeral(a, i, "This ticket is not closed, so it cannot be reopened.")
	case err != nil:
		return fmt.Errorf("error reopening ticket: %w", err)
	}

	return respondPublic(a, i, fmt.Sprintf("<@%s> has reopened this ticket.", userID))
}

// reassignTicketHandler moves the ticket for the thread to the user named in
// the sub command option.
func reassignTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	m, ok := ticketHere(a, i)
	if !ok {
		return respondEphemeral(a, i, messages.ErrUserNoTicketHere)
	}

	var target string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == userOptName {
			target = opt.UserValue(a.Session()).ID
		}
	}

	userID := interactionUser(i)

	_, err := a.Lifecycle().Transition(contextOf(i), m.GuildID, m.TicketID, lifecycle.ActionReassign, userID,
		&lifecycle.Payload{AssigneeID: target})
	switch {
	case errors.Is(err, lifecycle.ErrMissingAssignee):
		return respondEphemeral(a, i, "You must name a user to reassign this ticket to.")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return respondEphemeral(a, i, "Only a claimed ticket can be reassigned.")
	case err != nil:
		return fmt.Errorf("error reassigning ticket: %w", err)
	}

	return respondPublic(a, i, fmt.Sprintf("<@%s> has reassigned this ticket to <@%s>.", userID, target))
}

func pendingTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	m, ok := ticketHere(a, i)
	if !ok {
		return respondEphemeral(a, i, messages.ErrUserNoTicketHere)
	}

	userID := interactionUser(i)

	_, err := a.Lifecycle().Transition(contextOf(i), m.GuildID, m.TicketID, lifecycle.ActionPending, userID, nil)
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return respondEphemeral(a, i, "This ticket cannot be marked as pending in its current state.")
	case err != nil:
		return fmt.Errorf("error marking ticket pending: %w", err)
	}

	return respondPublic(a, i, fmt.Sprintf("<@%s> has marked this ticket as waiting on the requester.", userID))
}

// threadActivityHandler refreshes a ticket's activity clock when a message
// lands in its thread, which also clears any pending auto-close warning.
func threadActivityHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		if _, ok := a.Mappings().Lookup(m.ChannelID); !ok {
			return
		}

		if err := a.Lifecycle().RecordThreadActivity(context.Background(), m.ChannelID); err != nil {
			a.Log().Warn("Error recording thread activity",
				slog.String("thread_id", m.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

// modalInputValue digs the value of a text input out of a modal submit.
func modalInputValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			input, ok := comp.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
