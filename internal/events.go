package internal

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// EventKind identifies a discrete coordination event.
type EventKind uint8

const (
	// EventReaderEntered fires when a reader is admitted to the catalog.
	EventReaderEntered EventKind = iota
	// EventReaderExited fires when a reader leaves the catalog.
	EventReaderExited
	// EventRequestQueued fires when a borrow request lands in the queue.
	EventRequestQueued
	// EventAgentWoke fires when the librarian leaves the Sleeping state.
	EventAgentWoke
	// EventRequestProcessing fires when the librarian starts serving a request.
	EventRequestProcessing
	// EventBookDelivered fires when a book is handed out; Remaining carries
	// the count left in the catalog.
	EventBookDelivered
	// EventBookUnavailable fires when a request hits an empty catalog.
	EventBookUnavailable
	// EventAgentSleeping fires when the librarian goes back to sleep.
	EventAgentSleeping
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EventReaderEntered:
		return "reader_entered"
	case EventReaderExited:
		return "reader_exited"
	case EventRequestQueued:
		return "request_queued"
	case EventAgentWoke:
		return "agent_woke"
	case EventRequestProcessing:
		return "request_processing"
	case EventBookDelivered:
		return "book_delivered"
	case EventBookUnavailable:
		return "book_unavailable"
	case EventAgentSleeping:
		return "agent_sleeping"
	default:
		return "unknown"
	}
}

// Event is one entry in the one-way notification stream. Seq and
// Timestamp are assigned by the bus at publish time.
type Event struct {
	Kind      EventKind
	Seq       uint64
	Timestamp time.Time

	// Request is set for request-scoped events, nil otherwise.
	Request *BorrowRequest

	// Remaining is the post-delivery book count (EventBookDelivered).
	Remaining int

	// ActiveReaders is the reader count after the transition
	// (EventReaderEntered, EventReaderExited).
	ActiveReaders int

	// QueueLength is the queue length after enqueue (EventRequestQueued).
	QueueLength int
}

var (
	// ErrSubscriberExists is returned when Subscribe reuses an id.
	ErrSubscriberExists = errors.New("subscriber id already exists")

	// ErrSubscriberNotFound is returned when Unsubscribe misses.
	ErrSubscriberNotFound = errors.New("subscriber id not found")

	// ErrBusClosed is returned for Subscribe/Unsubscribe on a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrNilChannel is returned when Subscribe is given a nil channel.
	ErrNilChannel = errors.New("subscriber channel is nil")
)

// subscriberCounters holds internal atomic delivery counters.
type subscriberCounters struct {
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// EventBus fans events out to subscriber channels without ever blocking
// the publisher. If a subscriber's channel is full the event is dropped
// for that subscriber and counted; the coordination core never waits for
// its observers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- Event
	counters    map[string]*subscriberCounters
	closed      bool

	clock     clockwork.Clock
	seq       atomic.Uint64
	published atomic.Uint64
}

// EventBusStats is a snapshot of bus delivery counters.
type EventBusStats struct {
	// Published is the number of Publish calls.
	Published uint64

	// Sent is the sum of events delivered across all subscribers.
	Sent uint64

	// Dropped is the sum of events dropped due to full channels.
	Dropped uint64

	// Subscribers contains the per-subscriber breakdown.
	Subscribers map[string]SubscriberStats
}

// SubscriberStats tracks delivery counters for one subscriber.
type SubscriberStats struct {
	Sent    uint64
	Dropped uint64
}

// NewEventBus creates an empty bus stamping events with the given clock.
func NewEventBus(clock clockwork.Clock) *EventBus {
	return &EventBus{
		subscribers: make(map[string]chan<- Event),
		counters:    make(map[string]*subscriberCounters),
		clock:       clock,
	}
}

// Subscribe registers a channel to receive events. The channel should be
// buffered; events that do not fit are dropped, not queued.
func (b *EventBus) Subscribe(id string, ch chan<- Event) error {
	if ch == nil {
		return ErrNilChannel
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	b.subscribers[id] = ch
	b.counters[id] = &subscriberCounters{}
	return nil
}

// Unsubscribe removes a subscriber by id.
func (b *EventBus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(b.subscribers, id)
	delete(b.counters, id)
	return nil
}

// Publish stamps ev with a sequence number and timestamp and offers it to
// every subscriber. Never blocks; full subscribers miss the event. After
// Close it is a silent no-op so late emitters cannot fault shutdown.
func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	ev.Seq = b.seq.Add(1)
	ev.Timestamp = b.clock.Now()
	b.published.Add(1)

	for id, ch := range b.subscribers {
		counters := b.counters[id]
		select {
		case ch <- ev:
			counters.sent.Add(1)
		default:
			counters.dropped.Add(1)
		}
	}
}

// Stats returns a snapshot of delivery counters.
func (b *EventBus) Stats() EventBusStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := EventBusStats{
		Published:   b.published.Load(),
		Subscribers: make(map[string]SubscriberStats, len(b.counters)),
	}
	for id, c := range b.counters {
		sub := SubscriberStats{
			Sent:    c.sent.Load(),
			Dropped: c.dropped.Load(),
		}
		stats.Subscribers[id] = sub
		stats.Sent += sub.Sent
		stats.Dropped += sub.Dropped
	}
	return stats
}

// Close stops the bus. Subsequent Publish calls are no-ops and
// Subscribe/Unsubscribe return ErrBusClosed. Idempotent.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	return nil
}
