// Package ratelimit caps ticket creation per user with a sliding window.
// The state is process local and best effort: it resets on restart, which is
// acceptable because the limiter exists to damp abuse, not to enforce a hard
// quota. A multi-instance deployment would need to move this into the shared
// store.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxPerWindow is the default number of tickets a user may open
	// per window.
	DefaultMaxPerWindow = 5

	// DefaultWindow is the default sliding window.
	DefaultWindow = time.Hour
)

// Status is the result of a limit check.
type Status struct {
	// Limited is whether the user is currently over the limit.
	Limited bool

	// Remaining is how many creations the user has left in the window.
	Remaining int

	// ResetAt is when the oldest surviving creation falls out of the window.
	// Zero when the user has no recorded creations.
	ResetAt time.Time
}

// Limiter is a per-user sliding-window creation limiter.
type Limiter struct {
	mu sync.Mutex

	// max is the number of creations allowed per window.
	max int

	// window is the sliding window duration.
	window time.Duration

	// now is swappable so tests can simulate the clock.
	now func() time.Time

	// created holds the recent creation timestamps per user.
	created map[string][]time.Time
}

// NewLimiter creates a limiter allowing max creations per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		created: make(map[string][]time.Time),
	}
}

// CheckLimit reports whether the user is over the creation limit. Expired
// entries are pruned as a side effect.
func (l *Limiter) CheckLimit(userID string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(userID)

	s := Status{
		Remaining: l.max - len(recent),
	}
	if len(recent) > 0 {
		s.ResetAt = recent[0].Add(l.window)
	}
	if len(recent) >= l.max {
		s.Limited = true
		s.Remaining = 0
	}
	return s
}

// RecordCreation records a ticket creation for the user.
func (l *Limiter) RecordCreation(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(userID)
	l.created[userID] = append(recent, l.now())
}

// prune drops entries older than the window. Callers must hold the mutex.
func (l *Limiter) prune(userID string) []time.Time {
	cutoff := l.now().Add(-l.window)

	recent := l.created[userID][:0]
	for _, ts := range l.created[userID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) == 0 {
		delete(l.created, userID)
		return nil
	}
	l.created[userID] = recent
	return recent
}
