// Package platform wraps the discord session behind the small capability
// surface the ticket core needs: fetch channels, create categories, channels
// and threads, flip thread archive state, and send messages. Keeping the
// surface thin lets the lifecycle core and the background jobs run against
// fakes in tests.
package platform

import (
	"context"
	"time"
)

// Kind is the kind of channel-like construct on the platform.
type Kind int

const (
	// KindText is a plain guild text channel.
	KindText Kind = iota

	// KindCategory is a guild category containing channels.
	KindCategory

	// KindThread is a thread under a text channel.
	KindThread
)

// Channel is a platform channel, category or thread.
type Channel struct {
	// ID is the platform ID of the channel.
	ID string

	// GuildID is the guild the channel is in.
	GuildID string

	// ParentID is the ID of the parent category (for channels) or channel
	// (for threads).
	ParentID string

	// Name is the name of the channel.
	Name string

	// Kind is the kind of channel.
	Kind Kind

	// Archived and Locked are the thread flags. Only meaningful for threads.
	Archived bool
	Locked   bool
}

// Platform is the chat-platform capability consumed by the ticket core.
type Platform interface {
	// Channel fetches a channel, category or thread by ID. A missing or
	// deleted channel is reported with an error matching IsNotFound.
	Channel(ctx context.Context, channelID string) (*Channel, error)

	// GuildChannels lists all channels in a guild.
	GuildChannels(ctx context.Context, guildID string) ([]*Channel, error)

	// CreateCategory creates a category in the guild.
	CreateCategory(ctx context.Context, guildID, name string) (*Channel, error)

	// CreateChannel creates a text channel under the given category.
	CreateChannel(ctx context.Context, guildID, name, parentID string) (*Channel, error)

	// CreateThread creates a thread under the given channel with the given
	// auto-archive horizon.
	CreateThread(ctx context.Context, channelID, name string, autoArchive time.Duration) (*Channel, error)

	// SetThreadState sets the archived and locked flags on a thread.
	SetThreadState(ctx context.Context, threadID string, archived, locked bool) error

	// SendMessage sends a plain message to a channel or thread.
	SendMessage(ctx context.Context, channelID, content string) error
}
