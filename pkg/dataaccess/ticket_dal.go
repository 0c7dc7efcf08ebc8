package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

// TicketDal is the data access layer for tickets.
type TicketDal interface {
	// SaveTicket saves a ticket, inserting or replacing by (guild, id).
	SaveTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicket gets a ticket by guild and ticket number.
	GetTicket(ctx context.Context, guildID string, id int) (*entities.Ticket, error)

	// GetTicketByThread gets the ticket bound to a thread.
	GetTicketByThread(ctx context.Context, threadID string) (*entities.Ticket, error)

	// GetLatestTicket gets the most recently created ticket in a guild.
	GetLatestTicket(ctx context.Context, guildID string) (*entities.Ticket, error)

	// ListActiveWithThreads lists tickets across all guilds that are in a
	// non-terminal, non-orphaned state and have a recorded thread.
	ListActiveWithThreads(ctx context.Context) ([]*entities.Ticket, error)

	// ListOpenTickets lists tickets with status open in a guild.
	ListOpenTickets(ctx context.Context, guildID string) ([]*entities.Ticket, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(logger *slog.Logger) TicketDal {
	l := logger.With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collTickets)
}

func (d *ticketDal) SaveTicket(ctx context.Context, ticket *entities.Ticket) error {
	t := observe(ticketDalName, "save_ticket", collTickets)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx,
		bson.M{"guild_id": ticket.GuildID, "id": ticket.ID},
		bson.M{"$set": ticket}, opts)
	if err != nil {
		return fmt.Errorf("error updating ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) GetTicket(ctx context.Context, guildID string, id int) (*entities.Ticket, error) {
	t := observe(ticketDalName, "get_ticket", collTickets)
	defer t.ObserveDuration()

	var ticket entities.Ticket
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id": guildID,
		"id":       id,
	}).Decode(&ticket)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	return &ticket, nil
}

func (d *ticketDal) GetTicketByThread(ctx context.Context, threadID string) (*entities.Ticket, error) {
	t := observe(ticketDalName, "get_ticket_by_thread", collTickets)
	defer t.ObserveDuration()

	var ticket entities.Ticket
	err := d.collection().FindOne(ctx, bson.M{"thread_id": threadID}).Decode(&ticket)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket by thread: %w", err)
	}

	return &ticket, nil
}

func (d *ticketDal) GetLatestTicket(ctx context.Context, guildID string) (*entities.Ticket, error) {
	t := observe(ticketDalName, "get_latest_ticket", collTickets)
	defer t.ObserveDuration()

	// Ticket numbers count up, so the highest number is the latest.
	opts := options.FindOne()
	opts.SetSort(bson.M{"id": -1})

	var ticket entities.Ticket
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID}, opts).Decode(&ticket)
	if err != nil {
		return nil, fmt.Errorf("error getting latest ticket: %w", err)
	}

	return &ticket, nil
}

func (d *ticketDal) ListActiveWithThreads(ctx context.Context) ([]*entities.Ticket, error) {
	t := observe(ticketDalName, "list_active_with_threads", collTickets)
	defer t.ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{
		"status":    bson.M{"$in": []entities.Status{entities.StatusOpen, entities.StatusInProgress, entities.StatusPending}},
		"thread_id": bson.M{"$nin": []any{nil, ""}},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing active tickets: %w", err)
	}

	var tickets []*entities.Ticket
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding active tickets: %w", err)
	}
	return tickets, nil
}

func (d *ticketDal) ListOpenTickets(ctx context.Context, guildID string) ([]*entities.Ticket, error) {
	t := observe(ticketDalName, "list_open_tickets", collTickets)
	defer t.ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{
		"guild_id": guildID,
		"status":   entities.StatusOpen,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing open tickets: %w", err)
	}

	var tickets []*entities.Ticket
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding open tickets: %w", err)
	}
	return tickets, nil
}
