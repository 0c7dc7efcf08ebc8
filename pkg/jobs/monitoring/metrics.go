package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepDuration is the duration of background job sweeps.
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "warden_jobs_sweep_duration",
			Help: "Duration of background job sweeps",
		},
		[]string{"job"},
	)

	// OrphanedTickets is the total number of tickets orphaned by the
	// reconciliation job.
	OrphanedTickets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_jobs_orphaned_tickets",
			Help: "Total number of tickets marked orphaned",
		},
	)

	// AutoClosedTickets is the total number of tickets closed for
	// inactivity.
	AutoClosedTickets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_jobs_auto_closed_tickets",
			Help: "Total number of tickets auto-closed for inactivity",
		},
	)

	// AutoCloseWarnings is the total number of inactivity warnings sent.
	AutoCloseWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_jobs_auto_close_warnings",
			Help: "Total number of inactivity warnings sent",
		},
	)
)
