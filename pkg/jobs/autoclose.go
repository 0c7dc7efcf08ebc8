package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/jobs/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultAutoCloseInterval is how often inactivity is evaluated.
	DefaultAutoCloseInterval = time.Hour

	// WarningWindow is how long before the auto-close deadline the warning
	// is posted.
	WarningWindow = 12 * time.Hour

	// autoCloseNotes is the resolution notes for inactivity closures.
	autoCloseNotes = "closed due to inactivity"
)

// Notifier posts messages into ticket threads. Satisfied by
// provision.Provisioner.
type Notifier interface {
	NotifyThread(ctx context.Context, channelID, content string) error
}

// AutoCloser warns and then closes open tickets that have gone quiet, per
// guild configuration. The warning is sent once per quiet period: the sent
// time is persisted on the ticket and cleared by any activity.
type AutoCloser struct {
	l *slog.Logger

	configs dataaccess.ConfigDal
	tickets dataaccess.TicketDal

	svc *lifecycle.Service

	notifier Notifier

	interval time.Duration

	// now is swappable so tests can simulate the clock.
	now func() time.Time
}

// NewAutoCloser creates the auto-close job.
func NewAutoCloser(l *slog.Logger, configs dataaccess.ConfigDal, tickets dataaccess.TicketDal, svc *lifecycle.Service, notifier Notifier, interval time.Duration) *AutoCloser {
	if interval <= 0 {
		interval = DefaultAutoCloseInterval
	}
	return &AutoCloser{
		l:        l.With(slog.String(logging.KeyJob, "auto_closer")),
		configs:  configs,
		tickets:  tickets,
		svc:      svc,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps on the job interval until the context is cancelled.
func (a *AutoCloser) Run(ctx context.Context) {
	runEvery(ctx, a.l, a.interval, func(ctx context.Context) {
		if err := a.Sweep(ctx); err != nil {
			a.l.Error("Auto-close sweep failed", slog.String(logging.KeyError, err.Error()))
		}
	})
}

// Sweep evaluates every open ticket in every guild with auto-close enabled.
func (a *AutoCloser) Sweep(ctx context.Context) error {
	t := prometheus.NewTimer(monitoring.SweepDuration.WithLabelValues("auto_closer"))
	defer t.ObserveDuration()

	cfgs, err := a.configs.ListAutoCloseEnabled(ctx)
	if err != nil {
		return fmt.Errorf("error listing auto-close configs: %w", err)
	}

	for _, cfg := range cfgs {
		if err := a.sweepGuild(ctx, cfg); err != nil {
			// Skip this guild until the next sweep.
			a.l.Warn("Error sweeping guild",
				slog.String(logging.KeyGuild, cfg.GuildID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
	return nil
}

func (a *AutoCloser) sweepGuild(ctx context.Context, cfg *entities.GuildConfig) error {
	tickets, err := a.tickets.ListOpenTickets(ctx, cfg.GuildID)
	if err != nil {
		return fmt.Errorf("error listing open tickets: %w", err)
	}

	deadline := time.Duration(cfg.AutoCloseHours) * time.Hour

	for _, ticket := range tickets {
		idle := a.now().Sub(ticket.UpdatedAt.Time())

		switch {
		case idle >= deadline:
			a.close(ctx, cfg, ticket)
		case idle >= deadline-WarningWindow && ticket.AutoCloseWarnedAt.IsZero():
			a.warn(ctx, cfg, ticket)
		}
	}
	return nil
}

func (a *AutoCloser) close(ctx context.Context, cfg *entities.GuildConfig, ticket *entities.Ticket) {
	// Notify before closing; closing archives and locks the thread.
	if cfg.NotificationsEnabled && ticket.ThreadID != "" {
		if err := a.notifier.NotifyThread(ctx, ticket.ThreadID, messages.TicketAutoClosed); err != nil {
			a.l.Warn("Error notifying thread of auto-close", slog.String(logging.KeyError, err.Error()))
		}
	}

	_, err := a.svc.Transition(ctx, ticket.GuildID, ticket.ID, lifecycle.ActionClose, entities.SystemActor, &lifecycle.Payload{
		ResolutionType: entities.ResolutionAutoClosed,
		Notes:          autoCloseNotes,
	})
	if err != nil {
		a.l.Error("Error auto-closing ticket",
			slog.String(logging.KeyGuild, ticket.GuildID),
			slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticket.ID)),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	a.l.Info("Auto-closed inactive ticket",
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticket.ID)),
	)
	monitoring.AutoClosedTickets.Inc()
}

func (a *AutoCloser) warn(ctx context.Context, cfg *entities.GuildConfig, ticket *entities.Ticket) {
	if cfg.NotificationsEnabled && ticket.ThreadID != "" {
		if err := a.notifier.NotifyThread(ctx, ticket.ThreadID, messages.TicketAutoCloseWarning); err != nil {
			// Leave the warned marker unset so the next sweep retries.
			a.l.Warn("Error sending inactivity warning", slog.String(logging.KeyError, err.Error()))
			return
		}
	}

	// Persist the marker without touching the activity clock, so the idle
	// measurement stays honest and the warning is not re-sent every sweep.
	ticket.AutoCloseWarnedAt = custom.Datetime(a.now().UTC())
	if err := a.tickets.SaveTicket(ctx, ticket); err != nil {
		a.l.Error("Error persisting warning marker", slog.String(logging.KeyError, err.Error()))
		return
	}
	monitoring.AutoCloseWarnings.Inc()
}
