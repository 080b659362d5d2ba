package ticketing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/google/uuid"
)

// EventType identifies a ticket lifecycle event.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketClaimed  EventType = "ticket_claimed"
	EventTicketClosed   EventType = "ticket_closed"
	EventTicketAssigned EventType = "ticket_assigned"
)

// Event is a ticket lifecycle event. Events are emitted after the state
// transition has committed to the store; handlers are side effects and can
// never revert the transition.
type Event struct {
	// ID is a unique event envelope ID.
	ID string

	// Type is the lifecycle event type.
	Type EventType

	// Ticket is a snapshot of the ticket after the transition.
	Ticket *entities.Ticket

	// ActorID is the user (or service identity) that triggered the event.
	ActorID string

	// Timestamp is when the event was published.
	Timestamp time.Time
}

// EventHandler consumes a published event. Handler errors are logged, never
// propagated.
type EventHandler func(ctx context.Context, e Event)

// Dispatcher decouples fire-and-forget side effects (notifications, logging)
// from the transaction that committed the state change. Publishing never
// blocks the lifecycle decision: events flow through a buffered channel to a
// single worker goroutine, and are dropped with a log line if the buffer is
// full.
type Dispatcher struct {
	// l is the logger.
	l *slog.Logger

	// ch is the buffered event queue.
	ch chan Event

	// mu guards handlers.
	mu sync.RWMutex

	// handlers maps event types to their subscribers.
	handlers map[EventType][]EventHandler

	// done is closed when the worker drains and exits.
	done chan struct{}

	// closeOnce guards Close.
	closeOnce sync.Once
}

// NewDispatcher creates a new event dispatcher with the given queue depth.
func NewDispatcher(l *slog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		l:        l,
		ch:       make(chan Event, buffer),
		handlers: make(map[EventType][]EventHandler),
		done:     make(chan struct{}),
	}
}

// Subscribe registers a handler for the given event type. Subscribe must be
// called before Run.
func (d *Dispatcher) Subscribe(t EventType, h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], h)
}

// Publish enqueues an event, assigning it an envelope ID and timestamp.
func (d *Dispatcher) Publish(e Event) {
	e.ID = uuid.NewString()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	select {
	case d.ch <- e:
	default:
		d.l.Warn("Event queue full, dropping event",
			slog.String("event_type", string(e.Type)),
			slog.String("event_id", e.ID))
	}
}

// Run consumes the event queue until Close is called. It is intended to run
// on its own goroutine.
func (d *Dispatcher) Run() {
	defer close(d.done)

	for e := range d.ch {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.handlers[e.Type]...)
		d.mu.RUnlock()

		for _, h := range handlers {
			d.dispatch(h, e)
		}
	}
}

func (d *Dispatcher) dispatch(h EventHandler, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.l.Error("Panic in event handler",
				slog.String("event_type", string(e.Type)),
				slog.Any(logging.KeyError, rec))
		}
	}()
	h(context.Background(), e)
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.ch)
	})
	<-d.done
}
