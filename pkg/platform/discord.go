package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

// Discord adapts a discordgo session to the Platform capability.
type Discord struct {
	s *discordgo.Session
}

// NewDiscord creates a Discord platform over the given session.
func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

// The discordgo session API is not context aware, so the adapter checks the
// context before each call; the per-call timeout is enforced by the session's
// underlying http client.
func (d *Discord) Channel(ctx context.Context, channelID string) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := d.s.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting channel %s: %w", channelID, err)
	}
	return fromDiscordChannel(c), nil
}

func (d *Discord) GuildChannels(ctx context.Context, guildID string) ([]*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	channels, err := d.s.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild channels: %w", err)
	}

	out := make([]*Channel, 0, len(channels))
	for _, c := range channels {
		out = append(out, fromDiscordChannel(c))
	}
	return out, nil
}

func (d *Discord) CreateCategory(ctx context.Context, guildID, name string) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := d.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	return fromDiscordChannel(c), nil
}

func (d *Discord) CreateChannel(ctx context.Context, guildID, name, parentID string) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := d.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: parentID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating channel: %w", err)
	}
	return fromDiscordChannel(c), nil
}

func (d *Discord) CreateThread(ctx context.Context, channelID, name string, autoArchive time.Duration) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := d.s.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: int(autoArchive.Minutes()),
		Type:                discordgo.ChannelTypeGuildPublicThread,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating thread: %w", err)
	}
	return fromDiscordChannel(c), nil
}

func (d *Discord) SetThreadState(ctx context.Context, threadID string, archived, locked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := d.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}); err != nil {
		return fmt.Errorf("error editing thread %s: %w", threadID, err)
	}
	return nil
}

func (d *Discord) SendMessage(ctx context.Context, channelID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := d.s.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

func fromDiscordChannel(c *discordgo.Channel) *Channel {
	out := &Channel{
		ID:       c.ID,
		GuildID:  c.GuildID,
		ParentID: c.ParentID,
		Name:     c.Name,
		Kind:     KindText,
	}

	switch c.Type {
	case discordgo.ChannelTypeGuildCategory:
		out.Kind = KindCategory
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		out.Kind = KindThread
	}

	if c.ThreadMetadata != nil {
		out.Archived = c.ThreadMetadata.Archived
		out.Locked = c.ThreadMetadata.Locked
	}
	return out
}
