package internal

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Librarian is the single consumer of the request queue. It sleeps while
// no work exists, wakes on the queue's Put signal, serves requests in
// FIFO order and mutates the catalog only inside a write admission on the
// gate.
//
// State machine:
//
//	Sleeping -> Awake        (Put signal, or shutdown)
//	Awake    -> Processing   (request taken)
//	Processing -> Processing (queue non-empty, next request)
//	Processing -> Sleeping   (queue empty)
//	any      -> Stopped      (shutdown only)
//
// Sleeping is implemented as blocking in Take: the emptiness check and
// the sleep are one critical section inside the queue, so a Put landing
// "between" them is still observed and no wakeup is ever lost.
//
// There is exactly one librarian, so the processing step itself has no
// internal contention; all contention is against concurrent readers,
// mediated by the gate.
type Librarian struct {
	queue    *RequestQueue
	gate     *AccessGate
	catalog  *Catalog
	bus      *EventBus
	counters *outcomeCounters

	clock       clockwork.Clock
	serviceTime time.Duration

	state atomic.Int32
}

// NewLibrarian wires the librarian to its collaborators. serviceTime
// simulates the book search latency; zero disables it.
func NewLibrarian(
	queue *RequestQueue,
	gate *AccessGate,
	catalog *Catalog,
	bus *EventBus,
	counters *outcomeCounters,
	clock clockwork.Clock,
	serviceTime time.Duration,
) *Librarian {
	l := &Librarian{
		queue:       queue,
		gate:        gate,
		catalog:     catalog,
		bus:         bus,
		counters:    counters,
		clock:       clock,
		serviceTime: serviceTime,
	}
	l.state.Store(int32(StateSleeping))
	return l
}

// State returns the current scheduling state.
func (l *Librarian) State() AgentState {
	return AgentState(l.state.Load())
}

func (l *Librarian) setState(s AgentState) {
	l.state.Store(int32(s))
}

// Run executes the consume loop until ctx is cancelled or the queue is
// closed. Intended to run on its own goroutine; the system joins it
// during Stop.
func (l *Librarian) Run(ctx context.Context) {
	defer l.setState(StateStopped)

	for {
		l.setState(StateSleeping)
		l.bus.Publish(Event{Kind: EventAgentSleeping})

		// Blocks here while no work exists. A Put signal or shutdown is
		// the only way out.
		req, err := l.queue.Take(ctx)
		if err != nil {
			return
		}

		l.setState(StateAwake)
		l.bus.Publish(Event{Kind: EventAgentWoke})

		for {
			if !l.serve(ctx, req) {
				return
			}
			// Re-check for more work; the check is atomic inside the
			// queue, so a concurrent Put cannot be missed.
			next, ok := l.queue.TryTake()
			if !ok {
				break
			}
			req = next
		}
	}
}

// serve processes one request end to end. Returns false when shutdown
// interrupted the request; the request is still resolved (as cancelled)
// before returning, so no borrower is left waiting.
func (l *Librarian) serve(ctx context.Context, req *BorrowRequest) bool {
	l.setState(StateProcessing)
	l.bus.Publish(Event{Kind: EventRequestProcessing, Request: req})

	if l.serviceTime > 0 {
		select {
		case <-l.clock.After(l.serviceTime):
		case <-ctx.Done():
			l.cancel(req)
			return false
		}
	}

	if err := l.gate.AcquireWrite(ctx); err != nil {
		l.cancel(req)
		return false
	}
	remaining, ok := l.catalog.TakeOne()
	l.gate.ReleaseWrite()

	if ok {
		l.counters.delivered.Add(1)
		req.Resolve(Outcome{Kind: OutcomeDelivered, Remaining: remaining})
		l.bus.Publish(Event{Kind: EventBookDelivered, Request: req, Remaining: remaining})
	} else {
		l.counters.outOfStock.Add(1)
		req.Resolve(Outcome{Kind: OutcomeOutOfStock})
		l.bus.Publish(Event{Kind: EventBookUnavailable, Request: req})
	}
	return true
}

func (l *Librarian) cancel(req *BorrowRequest) {
	l.counters.cancelled.Add(1)
	req.Resolve(Outcome{Kind: OutcomeCancelled})
}
