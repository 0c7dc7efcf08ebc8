package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

const (
	// setupCmdName is the command for all configuration commands.
	setupCmdName = "setup"

	// enableCmdName is the sub command that enables ticketing in a channel.
	enableCmdName = "enable"

	// disableCmdName is the sub command that disables ticketing.
	disableCmdName = "disable"

	// autoCloseCmdName is the sub command that configures auto-close.
	autoCloseCmdName = "auto_close"

	// channelOptName is the text for the channel option.
	channelOptName = "channel"

	// adminChannelOptName is the text for the admin channel option.
	adminChannelOptName = "admin_channel"

	// hoursOptName is the text for the auto-close hours option.
	hoursOptName = "hours"
)

// setupCmd is the command for all configuration commands.
var setupCmd = &discordgo.ApplicationCommand{
	Name:        setupCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "This is the command for all configuration commands.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        enableCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This will enable ticketing in the channel you specify.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        channelOptName,
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "This is the channel you want the open-ticket message in.",
					Required:    true,
				},
				{
					Name:        adminChannelOptName,
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "This is the fallback channel for ticket threads and operator notices.",
				},
			},
		},
		{
			Name:        disableCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This will disable ticketing for your server.",
		},
		{
			Name:        autoCloseCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This configures automatic closure of inactive tickets.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        hoursOptName,
					Type:        discordgo.ApplicationCommandOptionInteger,
					Description: "Hours of inactivity before a ticket closes. 0 turns auto-close off.",
					Required:    true,
				},
			},
		},
	},
}

func setupCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	// Ensure the user is an administrator.
	if i.Member.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
		if err := respondEphemeral(a, i, "You must be an administrator to use this command"); err != nil {
			return nil, fmt.Errorf("error responding to interaction: %w", err)
		}
		return nil, nil
	}

	// Extract the sub command.
	subCmd := i.ApplicationCommandData().Options[0].Name

	switch subCmd {
	case enableCmdName:
		return enableTicketingCmdController, nil
	case disableCmdName:
		return disableTicketingCmdController, nil
	case autoCloseCmdName:
		return autoCloseCmdController, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

// enableTicketingCmdController posts the open-ticket message into the chosen
// channel and records where it lives.
func enableTicketingCmdController(a IApp, i *discordgo.InteractionCreate) error {
	// Extract the channel provided.
	channel := i.ApplicationCommandData().Options[0].Options[0].ChannelValue(a.Session())

	// Ensure the channel is a text channel.
	if channel.Type != discordgo.ChannelTypeGuildText {
		return respondEphemeral(a, i, "You must provide a text channel for ticketing.")
	}

	cfg, err := a.Configs().GetConfig(contextOf(i), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}

	for _, opt := range i.ApplicationCommandData().Options[0].Options[1:] {
		if opt.Name == adminChannelOptName {
			cfg.AdminChannelID = opt.ChannelValue(a.Session()).ID
		}
	}

	msg := new(discordgo.Message)

	// Check to see if the open-ticket message still exists.
	if cfg.OpenMessageID != "" && cfg.OpenChannelID != "" {
		msg, err = a.Session().ChannelMessage(cfg.OpenChannelID, cfg.OpenMessageID)
		// If the message does not exist, set the message ID to an empty string.
		if err != nil {
			var restErr *discordgo.RESTError
			ok := errors.As(err, &restErr)
			if ok && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
				cfg.OpenMessageID = ""
			} else {
				return fmt.Errorf("error getting open-ticket message: %w", err)
			}
		}

		if msg == nil {
			cfg.OpenMessageID = ""
		}
	}

	// If the message id is empty, or it moved channels, send a new message.
	if cfg.OpenMessageID == "" || cfg.OpenChannelID != channel.ID {
		msg, err = sendOpenTicketMessage(a, channel.ID)
		if err != nil {
			return fmt.Errorf("error sending open ticket message: %w", err)
		}
	}

	cfg.OpenMessageID = msg.ID
	cfg.OpenChannelID = channel.ID

	if err := a.Configs().SaveConfig(contextOf(i), cfg); err != nil {
		return fmt.Errorf("error saving guild configuration: %w", err)
	}

	// Stand the ticket categories up now so the first ticket does not pay
	// for their creation. A failure here is retried on first use.
	if _, err := a.Provision().EnsureActiveCategory(contextOf(i), i.GuildID); err != nil {
		a.Log().Warn("Error ensuring active tickets category", slog.String(logging.KeyError, err.Error()))
	}
	if _, err := a.Provision().EnsureArchiveCategory(contextOf(i), i.GuildID); err != nil {
		a.Log().Warn("Error ensuring ticket archive category", slog.String(logging.KeyError, err.Error()))
	}

	if err := respondEphemeral(a, i, fmt.Sprintf("Ticketing has been enabled in channel <#%s>", channel.ID)); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// disableTicketingCmdController removes the open-ticket message.
func disableTicketingCmdController(a IApp, i *discordgo.InteractionCreate) error {
	cfg, err := a.Configs().GetConfig(contextOf(i), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}

	if cfg.OpenMessageID != "" && cfg.OpenChannelID != "" {
		// Best effort; the message may already be gone.
		if err := a.Session().ChannelMessageDelete(cfg.OpenChannelID, cfg.OpenMessageID); err != nil {
			a.Log().Warn("Error deleting open-ticket message, continuing")
		}
	}

	cfg.OpenMessageID = ""
	cfg.OpenChannelID = ""

	if err := a.Configs().SaveConfig(contextOf(i), cfg); err != nil {
		return fmt.Errorf("error saving guild configuration: %w", err)
	}

	if err := respondEphemeral(a, i, "Ticketing has been disabled"); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// autoCloseCmdController configures inactivity closure for the guild.
func autoCloseCmdController(a IApp, i *discordgo.InteractionCreate) error {
	hours := int(i.ApplicationCommandData().Options[0].Options[0].IntValue())
	if hours < 0 {
		return respondEphemeral(a, i, "Hours must be zero or more.")
	}

	cfg, err := a.Configs().GetConfig(contextOf(i), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}

	cfg.AutoCloseEnabled = hours > 0
	if hours > 0 {
		cfg.AutoCloseHours = hours
	}

	if err := a.Configs().SaveConfig(contextOf(i), cfg); err != nil {
		return fmt.Errorf("error saving guild configuration: %w", err)
	}

	response := "Auto-close has been disabled."
	if cfg.AutoCloseEnabled {
		response = fmt.Sprintf("Tickets will now close after %d hours of inactivity.", hours)
	}
	if err := respondEphemeral(a, i, response); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}
