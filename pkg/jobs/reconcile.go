package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/jobs/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultReconcileInterval is how often threads are probed.
	DefaultReconcileInterval = 5 * time.Minute

	// orphanDetails is the audit detail recorded when a thread vanishes.
	orphanDetails = "external thread missing"

	// probeTimeout bounds each platform probe so one slow call cannot stall
	// the sweep.
	probeTimeout = 10 * time.Second
)

// Reconciler detects tickets whose discord thread vanished out from under
// them and marks them orphaned. It is the only path into the orphaned
// status. It never closes a ticket and never recreates the thread: a
// deleted thread can be a deliberate staff signal, and silently recreating
// it would mask that.
type Reconciler struct {
	l *slog.Logger

	tickets dataaccess.TicketDal

	svc *lifecycle.Service

	p platform.Platform

	interval time.Duration
}

// NewReconciler creates the reconciliation job.
func NewReconciler(l *slog.Logger, tickets dataaccess.TicketDal, svc *lifecycle.Service, p platform.Platform, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{
		l:        l.With(slog.String(logging.KeyJob, "reconciler")),
		tickets:  tickets,
		svc:      svc,
		p:        p,
		interval: interval,
	}
}

// Run sweeps on the job interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	runEvery(ctx, r.l, r.interval, func(ctx context.Context) {
		if err := r.Sweep(ctx); err != nil {
			r.l.Error("Reconciliation sweep failed", slog.String(logging.KeyError, err.Error()))
		}
	})
}

// Sweep probes every active ticket's thread once and orphans the tickets
// whose thread is gone.
func (r *Reconciler) Sweep(ctx context.Context) error {
	t := prometheus.NewTimer(monitoring.SweepDuration.WithLabelValues("reconciler"))
	defer t.ObserveDuration()

	tickets, err := r.tickets.ListActiveWithThreads(ctx)
	if err != nil {
		return fmt.Errorf("error listing active tickets: %w", err)
	}

	for _, ticket := range tickets {
		if err := r.probe(ctx, ticket.GuildID, ticket.ID, ticket.ThreadID); err != nil {
			// Skip this ticket until the next sweep.
			r.l.Warn("Error probing ticket thread",
				slog.String(logging.KeyGuild, ticket.GuildID),
				slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticket.ID)),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
	return nil
}

func (r *Reconciler) probe(ctx context.Context, guildID string, ticketID int, threadID string) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := r.p.Channel(probeCtx, threadID)
	switch {
	case err == nil:
		return nil
	case platform.IsNotFound(err):
		r.l.Info("Ticket thread missing, orphaning ticket",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyTicket, fmt.Sprintf("%d", ticketID)),
			slog.String("thread_id", threadID),
		)
		if err := r.svc.MarkOrphaned(ctx, guildID, ticketID, orphanDetails); err != nil {
			return fmt.Errorf("error orphaning ticket: %w", err)
		}
		monitoring.OrphanedTickets.Inc()
		return nil
	default:
		// Transient platform trouble is not evidence the thread is gone.
		return err
	}
}
