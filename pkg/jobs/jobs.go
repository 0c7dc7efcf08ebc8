// Package jobs holds the timer-driven sweeps that keep tickets and discord
// eventually consistent: reconciliation of vanished threads, auto-closure of
// inactive tickets, and the mapping cache refresh.
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// runEvery runs sweep immediately and then on every tick until the context
// is cancelled. The sweep itself runs on a context detached from
// cancellation so an in-flight iteration completes on shutdown rather than
// aborting mid-sweep.
func runEvery(ctx context.Context, l *slog.Logger, interval time.Duration, sweep func(context.Context)) {
	l.Info("Starting background job", slog.Duration("interval", interval))

	t := time.NewTicker(interval)
	defer t.Stop()

	sweep(context.WithoutCancel(ctx))
	for {
		select {
		case <-ctx.Done():
			l.Info("Stopping background job")
			return
		case <-t.C:
			sweep(context.WithoutCancel(ctx))
		}
	}
}
