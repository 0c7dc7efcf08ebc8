// Package provision keeps the discord-side structure in step with the
// ticket core: one active category and one archive category per guild, one
// channel per ticket category, and one thread per ticket.
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
)

const (
	// ActiveCategoryName is the well-known name of the category holding the
	// per-category ticket channels. Lookup by name lets the provisioner find
	// an existing category after a restart or cache loss.
	ActiveCategoryName = "Active Tickets"

	// ArchiveCategoryName is the well-known name of the archive category.
	ArchiveCategoryName = "Ticket Archive"

	// ThreadAutoArchive is the auto-archive horizon for ticket threads.
	ThreadAutoArchive = 7 * 24 * time.Hour
)

// Doer wraps platform calls with retry/backoff. Satisfied by retry.Runner.
type Doer interface {
	Do(ctx context.Context, op string, fn func() error) error
}

// Provisioner creates and maintains the guild structure on discord.
type Provisioner struct {
	l *slog.Logger

	p platform.Platform

	run Doer

	cache *Cache

	// configs supplies the fallback admin channel for guilds where category
	// provisioning fails.
	configs dataaccess.ConfigDal
}

// New creates a Provisioner.
func New(l *slog.Logger, p platform.Platform, run Doer, cache *Cache, configs dataaccess.ConfigDal) *Provisioner {
	return &Provisioner{
		l:       l,
		p:       p,
		run:     run,
		cache:   cache,
		configs: configs,
	}
}

// EnsureActiveCategory returns the guild's active tickets category ID,
// creating the category if it does not exist.
func (p *Provisioner) EnsureActiveCategory(ctx context.Context, guildID string) (string, error) {
	if id, ok := p.cache.activeCategory(guildID); ok {
		return id, nil
	}

	id, err := p.ensureCategory(ctx, guildID, ActiveCategoryName)
	if err != nil {
		return "", err
	}
	p.cache.setActiveCategory(guildID, id)
	return id, nil
}

// EnsureArchiveCategory returns the guild's archive category ID, creating
// the category if it does not exist.
func (p *Provisioner) EnsureArchiveCategory(ctx context.Context, guildID string) (string, error) {
	if id, ok := p.cache.archiveCategory(guildID); ok {
		return id, nil
	}

	id, err := p.ensureCategory(ctx, guildID, ArchiveCategoryName)
	if err != nil {
		return "", err
	}
	p.cache.setArchiveCategory(guildID, id)
	return id, nil
}

// ensureCategory finds a category by its well-known name, creating it when
// no match exists.
func (p *Provisioner) ensureCategory(ctx context.Context, guildID, name string) (string, error) {
	channels, err := p.p.GuildChannels(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("error listing guild channels: %w", err)
	}

	for _, c := range channels {
		if c.Kind == platform.KindCategory && c.Name == name {
			return c.ID, nil
		}
	}

	p.l.Warn("Category does not exist, creating it now",
		slog.String(logging.KeyGuild, guildID),
		slog.String("category", name),
	)

	var created *platform.Channel
	err = p.run.Do(ctx, "create_category", func() error {
		var err error
		created, err = p.p.CreateCategory(ctx, guildID, name)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("error creating category %s: %w", name, err)
	}
	return created.ID, nil
}

// EnsureCategoryChannel returns the channel for a ticket category, creating
// it under the active category if it does not exist. The channel name is
// derived deterministically from the category display name so a cache loss
// finds the existing channel rather than duplicating it.
func (p *Provisioner) EnsureCategoryChannel(ctx context.Context, guildID string, cat *entities.TicketCategory) (string, error) {
	name := cat.ChannelName()

	if id, ok := p.cache.channel(guildID, name); ok {
		return id, nil
	}

	channels, err := p.p.GuildChannels(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("error listing guild channels: %w", err)
	}

	for _, c := range channels {
		if c.Kind == platform.KindText && c.Name == name {
			p.cache.setChannel(guildID, name, c.ID)
			return c.ID, nil
		}
	}

	parentID, err := p.EnsureActiveCategory(ctx, guildID)
	if err != nil {
		return "", err
	}

	var created *platform.Channel
	err = p.run.Do(ctx, "create_channel", func() error {
		var err error
		created, err = p.p.CreateChannel(ctx, guildID, name, parentID)
		return err
	})
	if platform.IsNotFound(err) {
		// The cached parent category has been deleted out from under us.
		p.cache.invalidateActiveCategory(guildID)
		return "", fmt.Errorf("error creating channel %s: %w", name, err)
	} else if err != nil {
		return "", fmt.Errorf("error creating channel %s: %w", name, err)
	}

	p.cache.setChannel(guildID, name, created.ID)
	return created.ID, nil
}

// CreateTicketThread creates the conversation thread for a ticket, under the
// category channel when one can be resolved, otherwise under the guild's
// configured admin channel. It returns the created thread.
func (p *Provisioner) CreateTicketThread(ctx context.Context, t *entities.Ticket, cat *entities.TicketCategory) (*platform.Channel, error) {
	parentID, err := p.resolveParent(ctx, t.GuildID, cat)
	if err != nil {
		return nil, err
	}

	thread, err := p.createThread(ctx, parentID, t.Name())
	if platform.IsNotFound(err) && cat != nil {
		// The cached channel vanished; invalidate and recreate once.
		p.cache.invalidateChannel(t.GuildID, cat.ChannelName())

		parentID, err = p.resolveParent(ctx, t.GuildID, cat)
		if err != nil {
			return nil, err
		}
		thread, err = p.createThread(ctx, parentID, t.Name())
	}
	if err != nil {
		return nil, err
	}
	return thread, nil
}

func (p *Provisioner) createThread(ctx context.Context, channelID, name string) (*platform.Channel, error) {
	var thread *platform.Channel
	err := p.run.Do(ctx, "create_thread", func() error {
		var err error
		thread, err = p.p.CreateThread(ctx, channelID, name, ThreadAutoArchive)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ticket thread: %w", err)
	}
	return thread, nil
}

// resolveParent picks the channel a ticket thread is created under. Category
// provisioning failures fall back to the guild's admin channel so a broken
// category never blocks ticket creation outright.
func (p *Provisioner) resolveParent(ctx context.Context, guildID string, cat *entities.TicketCategory) (string, error) {
	if cat != nil {
		id, err := p.EnsureCategoryChannel(ctx, guildID, cat)
		if err == nil {
			return id, nil
		}
		p.l.Warn("Category channel unavailable, falling back to admin channel",
			slog.String(logging.KeyGuild, guildID),
			slog.String("category", cat.ID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	cfg, err := p.configs.GetConfig(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("error getting guild config: %w", err)
	}
	if cfg.AdminChannelID == "" {
		return "", fmt.Errorf("no channel available for ticket thread in guild %s", guildID)
	}
	return cfg.AdminChannelID, nil
}

// ArchiveTicket archives and locks a ticket thread. Archiving an already
// archived thread is a no-op success.
func (p *Provisioner) ArchiveTicket(ctx context.Context, threadID string) error {
	return p.setThreadState(ctx, threadID, true)
}

// ReopenTicket unarchives and unlocks a ticket thread. Reopening a live
// thread is a no-op success.
func (p *Provisioner) ReopenTicket(ctx context.Context, threadID string) error {
	return p.setThreadState(ctx, threadID, false)
}

func (p *Provisioner) setThreadState(ctx context.Context, threadID string, archived bool) error {
	thread, err := p.p.Channel(ctx, threadID)
	if err != nil {
		return fmt.Errorf("error getting thread %s: %w", threadID, err)
	}

	// Archiving implies locking; reopening implies unlocking.
	if thread.Archived == archived && thread.Locked == archived {
		return nil
	}

	err = p.run.Do(ctx, "set_thread_state", func() error {
		return p.p.SetThreadState(ctx, threadID, archived, archived)
	})
	if err != nil {
		return fmt.Errorf("error setting thread state: %w", err)
	}
	return nil
}

// NotifyThread posts a message into a thread or channel with retry.
func (p *Provisioner) NotifyThread(ctx context.Context, channelID, content string) error {
	err := p.run.Do(ctx, "send_message", func() error {
		return p.p.SendMessage(ctx, channelID, content)
	})
	if err != nil {
		return fmt.Errorf("error notifying thread %s: %w", channelID, err)
	}
	return nil
}

// CacheChannelStructure warms the structure cache from the guild's current
// channels. Run once at startup so the provisioner does not recreate
// containers that already exist after a restart.
func (p *Provisioner) CacheChannelStructure(ctx context.Context, guildID string) error {
	channels, err := p.p.GuildChannels(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error listing guild channels: %w", err)
	}

	var activeID string
	for _, c := range channels {
		if c.Kind != platform.KindCategory {
			continue
		}
		switch c.Name {
		case ActiveCategoryName:
			activeID = c.ID
			p.cache.setActiveCategory(guildID, c.ID)
		case ArchiveCategoryName:
			p.cache.setArchiveCategory(guildID, c.ID)
		}
	}

	for _, c := range channels {
		if c.Kind == platform.KindText && c.ParentID != "" && c.ParentID == activeID {
			p.cache.setChannel(guildID, c.Name, c.ID)
		}
	}

	p.l.Debug("Warmed channel structure cache", slog.String(logging.KeyGuild, guildID))
	return nil
}
