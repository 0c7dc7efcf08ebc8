// Package retry wraps single external platform calls with bounded
// exponential backoff. Permanent failures (unknown resource, missing access
// or permission) are surfaced immediately; anything else is treated as
// transient and retried.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxAttempts is the default retry bound.
	DefaultMaxAttempts = 4

	// DefaultBase is the default backoff base. Attempt n sleeps base * 2^n.
	DefaultBase = 500 * time.Millisecond
)

// Runner retries transient platform failures with exponential backoff. All
// calls through one Runner share a rate limiter so a burst of provisioning
// does not trip the discord API.
type Runner struct {
	l *slog.Logger

	// maxAttempts is the total number of attempts, including the first.
	maxAttempts int

	// base is the backoff base duration.
	base time.Duration

	// permanent reports whether an error should never be retried.
	permanent func(error) bool

	// pacer spaces out calls to the platform. May be nil in tests.
	pacer *rate.Limiter

	// sleep is swappable so tests can observe backoff without waiting.
	sleep func(time.Duration)
}

// NewRunner creates a Runner with the default bounds and platform error
// classification, pacing calls at the given rate per second.
func NewRunner(l *slog.Logger, callsPerSecond float64) *Runner {
	return &Runner{
		l:           l,
		maxAttempts: DefaultMaxAttempts,
		base:        DefaultBase,
		permanent:   platform.IsPermanent,
		pacer:       rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		sleep:       time.Sleep,
	}
}

// Do runs fn, retrying transient failures up to the runner's attempt bound.
// The last error is returned when all attempts are exhausted.
func (r *Runner) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := r.base * (1 << (attempt - 1))
			r.l.Debug("Retrying platform call",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
			)
			r.sleep(backoff)
		}

		if r.pacer != nil {
			if err := r.pacer.Wait(ctx); err != nil {
				return fmt.Errorf("error waiting for pacer: %w", err)
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if r.permanent(lastErr) {
			// Retrying cannot fix a missing resource or permission.
			return lastErr
		}

		r.l.Warn("Transient platform failure",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String(logging.KeyError, lastErr.Error()),
		)
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, r.maxAttempts, lastErr)
}
