// Package events fans ticket changes out to presentation consumers (the
// dashboard feed, notification hooks). The core broadcasts on every ticket
// creation and update; delivery is best effort and never blocks the
// dispatch path.
package events

import (
	"log/slog"
	"sync"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/entities"
)

// Type is the type of a ticket event.
type Type string

const (
	// TypeCreated is emitted when a ticket is created.
	TypeCreated Type = "ticket_created"

	// TypeUpdated is emitted on every ticket mutation after creation.
	TypeUpdated Type = "ticket_updated"
)

// Event carries the full updated ticket.
type Event struct {
	// Type is the type of the event.
	Type Type `json:"type"`

	// Ticket is the ticket after the change.
	Ticket *entities.Ticket `json:"ticket"`

	// At is when the event was emitted.
	At custom.Datetime `json:"at"`
}

// Broadcaster is the outbound event interface exposed by the ticket core.
type Broadcaster interface {
	// Broadcast publishes an event. It never blocks.
	Broadcast(e Event)
}

// Notifier is a channel-backed Broadcaster. Events are buffered and fanned
// out to subscribers from a single listener goroutine; when the buffer is
// full the event is dropped and logged, as consumers are presentation only.
type Notifier struct {
	l *slog.Logger

	ch chan Event

	mu     sync.RWMutex
	subs   []func(Event)
	closed bool
}

// NewNotifier creates a Notifier and starts its listener.
func NewNotifier(l *slog.Logger) *Notifier {
	n := &Notifier{
		l: l,
		// Buffered to prevent blocking the dispatch path.
		ch: make(chan Event, 100),
	}
	go n.listen()
	return n
}

// Subscribe registers a consumer. Subscribers are invoked sequentially from
// the listener goroutine and must not block.
func (n *Notifier) Subscribe(fn func(Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// Broadcast implements Broadcaster. Events published after Close are
// dropped; in-flight work may still broadcast while the app shuts down.
func (n *Notifier) Broadcast(e Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.ch <- e:
	default:
		n.l.Warn("Event buffer full, dropping event", slog.String("type", string(e.Type)))
	}
}

// Close stops the listener once the buffered events have drained.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.ch)
}

func (n *Notifier) listen() {
	for e := range n.ch {
		n.mu.RLock()
		subs := n.subs
		n.mu.RUnlock()

		for _, fn := range subs {
			fn(e)
		}
	}
}
