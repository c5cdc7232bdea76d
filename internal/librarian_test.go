package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCore bundles the librarian with its collaborators for unit tests.
type testCore struct {
	queue     *RequestQueue
	gate      *AccessGate
	catalog   *Catalog
	bus       *EventBus
	counters  *outcomeCounters
	librarian *Librarian

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startTestCore(t *testing.T, books, capacity int, serviceTime time.Duration, clock clockwork.Clock) *testCore {
	t.Helper()

	catalog, err := NewCatalog(books)
	require.NoError(t, err)
	queue, err := NewRequestQueue(capacity)
	require.NoError(t, err)

	c := &testCore{
		queue:    queue,
		gate:     NewAccessGate(),
		catalog:  catalog,
		bus:      NewEventBus(clock),
		counters: &outcomeCounters{},
	}
	c.librarian = NewLibrarian(queue, c.gate, catalog, c.bus, c.counters, clock, serviceTime)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.librarian.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		queue.Close()
		c.gate.Close()
		c.wg.Wait()
	})
	return c
}

// TestWakeOnPut validates the sleeping-barber transition: the librarian
// idles with an empty queue, a single Put wakes it, and the request is
// served without any missed wakeup.
func TestWakeOnPut(t *testing.T) {
	t.Parallel()

	c := startTestCore(t, 3, 2, 0, clockwork.NewRealClock())

	waitFor(t, time.Second, func() bool { return c.librarian.State() == StateSleeping }, "librarian never went to sleep")

	req := newRequest("b1")
	require.NoError(t, c.queue.Put(context.Background(), req))

	select {
	case out := <-req.Reply():
		assert.Equal(t, OutcomeDelivered, out.Kind)
		assert.Equal(t, 2, out.Remaining)
	case <-time.After(time.Second):
		t.Fatal("librarian missed the wakeup")
	}

	// No more work: back to sleep.
	waitFor(t, time.Second, func() bool { return c.librarian.State() == StateSleeping }, "librarian did not return to sleep")
	assert.Equal(t, uint64(1), c.counters.delivered.Load())
}

// TestOutOfStockOutcome validates that an empty catalog is a normal
// result delivered to the borrower, with no catalog mutation.
func TestOutOfStockOutcome(t *testing.T) {
	t.Parallel()

	c := startTestCore(t, 0, 2, 0, clockwork.NewRealClock())

	req := newRequest("b1")
	require.NoError(t, c.queue.Put(context.Background(), req))

	select {
	case out := <-req.Reply():
		assert.Equal(t, OutcomeOutOfStock, out.Kind)
	case <-time.After(time.Second):
		t.Fatal("no outcome for out-of-stock request")
	}
	assert.Equal(t, 0, c.catalog.Count())
	assert.Equal(t, uint64(1), c.counters.outOfStock.Load())
}

// TestFIFOServiceOrder validates that queued requests are served in
// submission order, observed through the event stream.
func TestFIFOServiceOrder(t *testing.T) {
	t.Parallel()

	catalog, err := NewCatalog(5)
	require.NoError(t, err)
	queue, err := NewRequestQueue(5)
	require.NoError(t, err)
	clock := clockwork.NewRealClock()
	bus := NewEventBus(clock)
	counters := &outcomeCounters{}
	librarian := NewLibrarian(queue, NewAccessGate(), catalog, bus, counters, clock, 0)

	events := make(chan Event, 64)
	require.NoError(t, bus.Subscribe("order", events))

	// Queue three requests before the librarian exists, so it finds a
	// backlog on wake and must preserve order.
	reqs := []*BorrowRequest{newRequest("b1"), newRequest("b2"), newRequest("b3")}
	for _, r := range reqs {
		require.NoError(t, queue.Put(context.Background(), r))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		librarian.Run(ctx)
	}()
	defer func() {
		cancel()
		queue.Close()
		wg.Wait()
	}()

	for _, r := range reqs {
		select {
		case <-r.Reply():
		case <-time.After(time.Second):
			t.Fatalf("request %s never resolved", r.ID)
		}
	}

	var processed []*BorrowRequest
	for len(processed) < len(reqs) {
		select {
		case ev := <-events:
			if ev.Kind == EventRequestProcessing {
				processed = append(processed, ev.Request)
			}
		case <-time.After(time.Second):
			t.Fatal("missing processing events")
		}
	}
	for i := range reqs {
		assert.Same(t, reqs[i], processed[i], "service order diverged at %d", i)
	}
}

// TestServiceLatencyIsClockDriven validates the simulated search time:
// with a fake clock the outcome arrives only after the clock advances by
// the configured service time.
func TestServiceLatencyIsClockDriven(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := startTestCore(t, 1, 2, 2*time.Second, clock)

	req := newRequest("b1")
	require.NoError(t, c.queue.Put(context.Background(), req))

	// The librarian is now parked on the clock.
	clock.BlockUntil(1)
	select {
	case <-req.Reply():
		t.Fatal("request resolved before service time elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(2 * time.Second)

	select {
	case out := <-req.Reply():
		assert.Equal(t, OutcomeDelivered, out.Kind)
		assert.Equal(t, 0, out.Remaining)
	case <-time.After(time.Second):
		t.Fatal("request not resolved after service time elapsed")
	}
}

// TestCancellationMidService validates that shutdown during the service
// wait still yields exactly one outcome: Cancelled.
func TestCancellationMidService(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := startTestCore(t, 1, 2, time.Minute, clock)

	req := newRequest("b1")
	require.NoError(t, c.queue.Put(context.Background(), req))

	clock.BlockUntil(1)
	c.cancel()

	select {
	case out := <-req.Reply():
		assert.Equal(t, OutcomeCancelled, out.Kind)
	case <-time.After(time.Second):
		t.Fatal("interrupted request never resolved")
	}

	c.wg.Wait()
	assert.Equal(t, StateStopped, c.librarian.State())
	assert.Equal(t, 1, c.catalog.Count(), "cancelled request must not mutate the catalog")
}
