// Package lifecycle owns the ticket state machine. The ticket record in
// storage is the source of truth; discord is a best-effort mirror. Platform
// side effects are applied synchronously after the authoritative write and
// are never allowed to roll it back.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/events"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"go.mongodb.org/mongo-driver/mongo"
)

// Provisioner is the discord-side capability the state machine needs.
// Satisfied by provision.Provisioner.
type Provisioner interface {
	// CreateTicketThread creates the conversation thread for a ticket.
	CreateTicketThread(ctx context.Context, t *entities.Ticket, cat *entities.TicketCategory) (*platform.Channel, error)

	// ArchiveTicket archives and locks a ticket thread.
	ArchiveTicket(ctx context.Context, threadID string) error

	// ReopenTicket unarchives and unlocks a ticket thread.
	ReopenTicket(ctx context.Context, threadID string) error

	// NotifyThread posts a message into a thread.
	NotifyThread(ctx context.Context, channelID, content string) error
}

// CreateRequest is a ticket creation request.
type CreateRequest struct {
	GuildID     string
	Title       string
	Description string
	CreatorID   string
	CategoryID  string

	// PriorityOverride, when non-empty, overrides the guild's default
	// priority.
	PriorityOverride string
}

// Payload carries the action-specific inputs to a transition.
type Payload struct {
	// AssigneeID is the target assignee for claim and reassign. Claim
	// defaults to the actor.
	AssigneeID string

	// Notes is the closure notes for close.
	Notes string

	// Resolved marks a closure as resolved rather than plain closed.
	Resolved bool

	// ResolutionType overrides the resolution type derived from Resolved.
	// The auto-close job uses this.
	ResolutionType entities.ResolutionType
}

// Result is the outcome of a transition. The ticket-side change is always
// authoritative; PlatformErr reports a failed discord side effect that the
// caller may retry or surface, without the transition being rolled back.
type Result struct {
	// Ticket is the ticket after the transition.
	Ticket *entities.Ticket

	// NoOp is whether the transition was skipped as a harmless repeat, such
	// as closing an already closed ticket.
	NoOp bool

	// PlatformErr is the error from the discord side effect, if any.
	PlatformErr error
}

// Service is the ticket state machine.
type Service struct {
	l *slog.Logger

	tickets     dataaccess.TicketDal
	categories  dataaccess.CategoryDal
	mappings    dataaccess.MappingDal
	audit       dataaccess.AuditDal
	resolutions dataaccess.ResolutionDal
	configs     dataaccess.ConfigDal

	prov Provisioner

	broadcaster events.Broadcaster

	cache *MappingCache

	// now is swappable so tests can simulate the clock.
	now func() time.Time
}

// NewService creates the ticket state machine service.
func NewService(
	l *slog.Logger,
	tickets dataaccess.TicketDal,
	categories dataaccess.CategoryDal,
	mappings dataaccess.MappingDal,
	audit dataaccess.AuditDal,
	resolutions dataaccess.ResolutionDal,
	configs dataaccess.ConfigDal,
	prov Provisioner,
	broadcaster events.Broadcaster,
	cache *MappingCache,
) *Service {
	return &Service{
		l:           l,
		tickets:     tickets,
		categories:  categories,
		mappings:    mappings,
		audit:       audit,
		resolutions: resolutions,
		configs:     configs,
		prov:        prov,
		broadcaster: broadcaster,
		cache:       cache,
		now:         time.Now,
	}
}

// CreateTicket persists a new ticket and provisions its discord thread. The
// ticket record is the source of truth: a provisioning failure is logged and
// the ticket kept for manual follow-up, never rolled back.
func (s *Service) CreateTicket(ctx context.Context, req *CreateRequest) (*entities.Ticket, error) {
	cfg, err := s.configs.GetConfig(ctx, req.GuildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	latest, err := s.tickets.GetLatestTicket(ctx, req.GuildID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error getting latest ticket: %w", err)
	}

	ticketID := 1
	if latest != nil {
		ticketID = latest.ID + 1
	}

	now := custom.Datetime(s.now().UTC())
	ticket := &entities.Ticket{
		ID:          ticketID,
		GuildID:     req.GuildID,
		Title:       req.Title,
		Description: req.Description,
		Status:      entities.StatusOpen,
		Priority:    entities.ParsePriority(req.PriorityOverride, cfg.DefaultPriority),
		CategoryID:  req.CategoryID,
		CreatorID:   req.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	s.appendAudit(ctx, ticket, entities.AuditCreated, req.CreatorID, "")
	s.broadcast(events.TypeCreated, ticket)

	s.provisionThread(ctx, ticket)
	return ticket, nil
}

// provisionThread creates the discord thread for a ticket and binds it. Any
// failure is logged, not returned; the ticket already exists and is the
// source of truth.
func (s *Service) provisionThread(ctx context.Context, ticket *entities.Ticket) {
	var cat *entities.TicketCategory
	if ticket.CategoryID != "" {
		var err error
		cat, err = s.categories.GetCategory(ctx, ticket.CategoryID)
		if err != nil {
			s.l.Warn("Error getting ticket category, provisioning without one",
				slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticket.ID)),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	thread, err := s.prov.CreateTicketThread(ctx, ticket, cat)
	if err != nil {
		s.l.Error("Error provisioning ticket thread, ticket kept for manual follow-up",
			slog.String(logging.KeyGuild, ticket.GuildID),
			slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticket.ID)),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	ticket.ThreadID = thread.ID
	ticket.ChannelID = thread.ParentID

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		s.l.Error("Error saving ticket thread binding", slog.String(logging.KeyError, err.Error()))
		return
	}

	mapping := &entities.ThreadMapping{
		ThreadID:  thread.ID,
		TicketID:  ticket.ID,
		ChannelID: thread.ParentID,
		GuildID:   ticket.GuildID,
		Status:    entities.MappingActive,
		CreatedAt: custom.Datetime(s.now().UTC()),
	}
	if err := s.mappings.SaveMapping(ctx, mapping); err != nil {
		s.l.Error("Error saving thread mapping", slog.String(logging.KeyError, err.Error()))
	} else if s.cache != nil {
		s.cache.Put(mapping)
	}

	if err := s.prov.NotifyThread(ctx, thread.ID, messages.TicketCreated); err != nil {
		s.l.Warn("Error sending ticket welcome message", slog.String(logging.KeyError, err.Error()))
	}
}

// Transition applies an action to a ticket. Illegal actions fail with
// ErrInvalidTransition and mutate nothing. The ticket-side write is
// authoritative; the discord side effect (archive on close, unarchive on
// reopen) is reported separately through Result.PlatformErr and never rolls
// the write back.
func (s *Service) Transition(ctx context.Context, guildID string, ticketID int, action Action, actor string, payload *Payload) (*Result, error) {
	if payload == nil {
		payload = new(Payload)
	}

	ticket, err := s.tickets.GetTicket(ctx, guildID, ticketID)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	// Closing a closed ticket is a legitimate repeat, not a conflict. No
	// mutation, no second resolution.
	if action == ActionClose && ticket.Status.IsTerminal() {
		return &Result{Ticket: ticket, NoOp: true}, nil
	}

	// Claiming a claimed ticket is a conflict the actor must see.
	if action == ActionClaim && ticket.Status == entities.StatusInProgress {
		return nil, fmt.Errorf("%w by %s", ErrAlreadyClaimed, ticket.AssigneeID)
	}

	if action == ActionReassign && payload.AssigneeID == "" {
		return nil, ErrMissingAssignee
	}

	if !canApply(action, ticket.Status) {
		return nil, fmt.Errorf("%w: cannot %s a ticket in status %s", ErrInvalidTransition, action, ticket.Status)
	}

	wasOrphaned := ticket.Status == entities.StatusOrphaned

	auditAction, details := s.apply(ticket, action, actor, payload)

	s.touch(ticket)
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	s.appendAudit(ctx, ticket, auditAction, actor, details)
	s.broadcast(events.TypeUpdated, ticket)

	res := &Result{Ticket: ticket}

	switch action {
	case ActionClose:
		s.recordResolution(ctx, ticket, actor, payload)
		if ticket.ThreadID != "" {
			res.PlatformErr = s.prov.ArchiveTicket(ctx, ticket.ThreadID)
		}
	case ActionReopen:
		if wasOrphaned || ticket.ThreadID == "" {
			// The old thread is gone; bind a fresh one.
			s.provisionThread(ctx, ticket)
		} else {
			res.PlatformErr = s.prov.ReopenTicket(ctx, ticket.ThreadID)
		}
	}

	if res.PlatformErr != nil {
		s.l.Warn("Platform side effect failed, ticket state already updated",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticketID)),
			slog.String("action", string(action)),
			slog.String(logging.KeyError, res.PlatformErr.Error()),
		)
	}
	return res, nil
}

// apply mutates the ticket fields for an action and returns the audit action
// and details. Legality has already been checked.
func (s *Service) apply(ticket *entities.Ticket, action Action, actor string, payload *Payload) (entities.AuditAction, string) {
	switch action {
	case ActionClaim:
		assignee := payload.AssigneeID
		if assignee == "" {
			assignee = actor
		}
		ticket.Status = entities.StatusInProgress
		ticket.AssigneeID = assignee
		return entities.AuditClaimed, "claimed by " + assignee

	case ActionReassign:
		prev := ticket.AssigneeID
		ticket.AssigneeID = payload.AssigneeID
		return entities.AuditReassigned, fmt.Sprintf("reassigned from %s to %s", prev, payload.AssigneeID)

	case ActionPending:
		ticket.Status = entities.StatusPending
		return entities.AuditPending, ""

	case ActionClose:
		ticket.ClosedAt = custom.Datetime(s.now().UTC())
		if payload.Resolved {
			ticket.Status = entities.StatusResolved
			return entities.AuditResolved, payload.Notes
		}
		ticket.Status = entities.StatusClosed
		return entities.AuditClosed, payload.Notes

	case ActionReopen:
		ticket.Status = entities.StatusOpen
		ticket.ClosedAt = custom.Datetime{}
		return entities.AuditReopened, ""

	default:
		// canApply rejects unknown actions before we get here.
		return entities.AuditAction(action), ""
	}
}

// recordResolution writes the single terminal annotation for a closure.
func (s *Service) recordResolution(ctx context.Context, ticket *entities.Ticket, actor string, payload *Payload) {
	resType := payload.ResolutionType
	if resType == "" {
		resType = entities.ResolutionClosed
		if payload.Resolved {
			resType = entities.ResolutionResolved
		}
	}

	res := &entities.Resolution{
		TicketID:   ticket.ID,
		GuildID:    ticket.GuildID,
		Type:       resType,
		Notes:      payload.Notes,
		ResolvedBy: actor,
		CreatedAt:  custom.Datetime(s.now().UTC()),
	}
	if err := s.resolutions.SaveResolution(ctx, res); err != nil {
		s.l.Error("Error saving resolution", slog.String(logging.KeyError, err.Error()))
	}
}

// MarkOrphaned transitions a ticket to orphaned after its thread was found
// missing. Only the reconciliation job calls this; it never closes a ticket
// and never recreates the thread, since a deleted thread can be a deliberate
// staff signal.
func (s *Service) MarkOrphaned(ctx context.Context, guildID string, ticketID int, details string) error {
	ticket, err := s.tickets.GetTicket(ctx, guildID, ticketID)
	if err != nil {
		return fmt.Errorf("error getting ticket: %w", err)
	}

	if ticket.Status.IsTerminal() || ticket.Status == entities.StatusOrphaned {
		return nil
	}

	threadID := ticket.ThreadID
	ticket.Status = entities.StatusOrphaned
	s.touch(ticket)

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}

	s.appendAudit(ctx, ticket, entities.AuditOrphaned, entities.SystemActor, details)
	s.broadcast(events.TypeUpdated, ticket)

	if threadID != "" {
		if err := s.mappings.MarkDeleted(ctx, threadID); err != nil {
			s.l.Error("Error marking mapping deleted", slog.String(logging.KeyError, err.Error()))
		}
		if s.cache != nil {
			s.cache.Remove(threadID)
		}
	}
	return nil
}

// RecordThreadActivity refreshes a ticket's activity clock when a message
// lands in its thread. Activity clears any pending auto-close warning.
func (s *Service) RecordThreadActivity(ctx context.Context, threadID string) error {
	ticket, err := s.tickets.GetTicketByThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("error getting ticket by thread: %w", err)
	}

	if ticket.Status.IsTerminal() {
		return nil
	}

	s.touch(ticket)
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}

	s.broadcast(events.TypeUpdated, ticket)
	return nil
}

// touch refreshes the activity clock and clears the auto-close warning.
func (s *Service) touch(ticket *entities.Ticket) {
	ticket.UpdatedAt = custom.Datetime(s.now().UTC())
	ticket.AutoCloseWarnedAt = custom.Datetime{}
}

func (s *Service) appendAudit(ctx context.Context, ticket *entities.Ticket, action entities.AuditAction, actor, details string) {
	entry := &entities.AuditLogEntry{
		TicketID:  ticket.ID,
		GuildID:   ticket.GuildID,
		Action:    action,
		Actor:     actor,
		Details:   details,
		CreatedAt: custom.Datetime(s.now().UTC()),
	}
	if err := s.audit.AppendEntry(ctx, entry); err != nil {
		// The trail is best effort when storage hiccups; the ticket write
		// has already landed.
		s.l.Error("Error appending audit entry", slog.String(logging.KeyError, err.Error()))
	}
}

func (s *Service) broadcast(t events.Type, ticket *entities.Ticket) {
	if s.broadcaster == nil {
		return
	}
	copied := *ticket
	s.broadcaster.Broadcast(events.Event{
		Type:   t,
		Ticket: &copied,
		At:     custom.Datetime(s.now().UTC()),
	})
}
