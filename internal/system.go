// Package internal implements the smart-library coordination core.
//
// This package is INTERNAL. Clients must use the public API in the
// parent package.
package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roham-amd/smart-library/internal/syncutil"
)

var (
	// ErrAlreadyStarted is returned by a second Start call.
	ErrAlreadyStarted = errors.New("library already started")

	// ErrStopped is returned for submissions after Stop.
	ErrStopped = errors.New("library is stopped")
)

// Config carries the construction parameters. All fields are immutable
// after NewSystem.
type Config struct {
	// InitialBooks is the catalog size at startup. Must be >= 0.
	InitialBooks int

	// QueueCapacity bounds the borrow request queue. Must be > 0.
	QueueCapacity int

	// ServiceTime simulates the librarian's book search latency per
	// request. Zero disables the simulated latency.
	ServiceTime time.Duration

	// Clock drives timestamps and the service latency. Defaults to the
	// real clock; tests inject a fake one.
	Clock clockwork.Clock
}

// System wires the gate, queue, catalog, librarian and event bus
// together and owns their shared lifecycle.
//
// Goroutine topology:
//   - 1 fixed: the librarian loop (spawned by Start, joined by Stop)
//   - N external: reader/borrower goroutines, owned by the caller
type System struct {
	cfg   Config
	clock clockwork.Clock

	gate      *AccessGate
	queue     *RequestQueue
	catalog   *Catalog
	bus       *EventBus
	librarian *Librarian
	counters  outcomeCounters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lifecycleMu syncutil.Mutex
	started     bool
	stopped     bool
}

// NewSystem validates cfg and builds the core. Nothing runs until Start.
func NewSystem(cfg Config) (*System, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	catalog, err := NewCatalog(cfg.InitialBooks)
	if err != nil {
		return nil, err
	}
	queue, err := NewRequestQueue(cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}

	s := &System{
		cfg:     cfg,
		clock:   clock,
		gate:    NewAccessGate(),
		queue:   queue,
		catalog: catalog,
		bus:     NewEventBus(clock),
	}
	s.librarian = NewLibrarian(queue, s.gate, catalog, s.bus, &s.counters, clock, cfg.ServiceTime)
	return s, nil
}

// Start spawns the librarian loop. Only the first call succeeds.
func (s *System) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.stopped {
		return ErrStopped
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.librarian.Run(s.ctx)
	}()
	return nil
}

// Stop runs the cancellation sequence: every blocked reader, writer and
// borrower is released with a cancelled result, the sleeping librarian is
// woken so it can exit, and queued requests are resolved as cancelled
// rather than silently dropped. After Stop returns, no goroutine owned by
// the system remains and no caller is left permanently blocked.
//
// Idempotent: safe to call more than once.
func (s *System) Stop() error {
	s.lifecycleMu.Lock()
	if s.stopped {
		s.lifecycleMu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.lifecycleMu.Unlock()

	if started {
		s.cancel()
	}

	// Unblock producers and the librarian's Take, then unblock any
	// reader/writer stuck on admission.
	s.queue.Close()
	s.gate.Close()

	if started {
		s.wg.Wait()
	}

	// The librarian is gone; whatever is still queued gets a cancelled
	// outcome so every Put yields exactly one result.
	for _, req := range s.queue.Drain() {
		s.counters.cancelled.Add(1)
		req.Resolve(Outcome{Kind: OutcomeCancelled})
	}

	return s.bus.Close()
}

// BeginRead admits the caller as a reader. Blocks while a writer is
// active or waiting. The caller must pair it with EndRead.
func (s *System) BeginRead(ctx context.Context) error {
	if err := s.gate.AcquireRead(ctx); err != nil {
		return err
	}
	s.bus.Publish(Event{
		Kind:          EventReaderEntered,
		ActiveReaders: s.gate.Snapshot().ActiveReaders,
	})
	return nil
}

// EndRead releases the caller's read admission.
func (s *System) EndRead() {
	s.gate.ReleaseRead()
	s.bus.Publish(Event{
		Kind:          EventReaderExited,
		ActiveReaders: s.gate.Snapshot().ActiveReaders,
	})
}

// SubmitBorrow enqueues a borrow request, blocking while the queue is
// full, and returns the request whose Reply channel will carry exactly
// one outcome.
func (s *System) SubmitBorrow(ctx context.Context, borrowerID string) (*BorrowRequest, error) {
	req := NewBorrowRequest(borrowerID, s.clock.Now())
	if err := s.queue.Put(ctx, req); err != nil {
		return nil, err
	}
	s.bus.Publish(Event{
		Kind:        EventRequestQueued,
		Request:     req,
		QueueLength: s.queue.Len(),
	})
	return req, nil
}

// TryBorrow is the non-blocking submission variant. A full queue reports
// ErrQueueFull immediately instead of blocking.
func (s *System) TryBorrow(borrowerID string) (*BorrowRequest, error) {
	req := NewBorrowRequest(borrowerID, s.clock.Now())
	if err := s.queue.TryPut(req); err != nil {
		return nil, err
	}
	s.bus.Publish(Event{
		Kind:        EventRequestQueued,
		Request:     req,
		QueueLength: s.queue.Len(),
	})
	return req, nil
}

// Borrow submits a request and waits for its outcome. A caller unblocked
// by shutdown or by its own context receives a cancelled outcome rather
// than hanging.
func (s *System) Borrow(ctx context.Context, borrowerID string) (Outcome, error) {
	req, err := s.SubmitBorrow(ctx, borrowerID)
	if err != nil {
		return Outcome{Kind: OutcomeCancelled}, err
	}

	select {
	case out := <-req.Reply():
		return out, nil
	case <-ctx.Done():
		return Outcome{Kind: OutcomeCancelled}, ctx.Err()
	}
}

// Subscribe registers an event channel on the observability bus.
func (s *System) Subscribe(id string, ch chan<- Event) error {
	return s.bus.Subscribe(id, ch)
}

// Unsubscribe removes an event subscriber.
func (s *System) Unsubscribe(id string) error {
	return s.bus.Unsubscribe(id)
}

// Stats returns a snapshot of the whole core.
func (s *System) Stats() Stats {
	gate := s.gate.Snapshot()
	return Stats{
		ActiveReaders:  gate.ActiveReaders,
		WriterActive:   gate.WriterActive,
		WriterWaiting:  gate.WriterWaiting,
		QueueLength:    s.queue.Len(),
		QueueCapacity:  s.queue.Cap(),
		AgentState:     s.librarian.State(),
		BooksRemaining: s.catalog.Count(),
		Delivered:      s.counters.delivered.Load(),
		OutOfStock:     s.counters.outOfStock.Load(),
		Cancelled:      s.counters.cancelled.Load(),
		Events:         s.bus.Stats(),
	}
}
