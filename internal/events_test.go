package internal

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPublishNeverBlocks validates the one-way contract: a full
// subscriber loses events, the publisher never waits.
func TestPublishNeverBlocks(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(clockwork.NewRealClock())
	ch := make(chan Event, 1)
	require.NoError(t, bus.Subscribe("slow", ch))

	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Kind: EventAgentWoke})
		bus.Publish(Event{Kind: EventAgentSleeping})
		bus.Publish(Event{Kind: EventAgentWoke})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	stats := bus.Stats()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(1), stats.Subscribers["slow"].Sent)
	assert.Equal(t, uint64(2), stats.Subscribers["slow"].Dropped)

	ev := <-ch
	assert.Equal(t, EventAgentWoke, ev.Kind)
}

func TestSubscribeValidation(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(clockwork.NewRealClock())
	ch := make(chan Event, 1)

	assert.ErrorIs(t, bus.Subscribe("x", nil), ErrNilChannel)
	require.NoError(t, bus.Subscribe("x", ch))
	assert.ErrorIs(t, bus.Subscribe("x", ch), ErrSubscriberExists)
	assert.ErrorIs(t, bus.Unsubscribe("y"), ErrSubscriberNotFound)
	require.NoError(t, bus.Unsubscribe("x"))
}

// TestSequenceAndTimestamp validates that the bus stamps events with a
// monotonically increasing sequence and the injected clock's time.
func TestSequenceAndTimestamp(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	bus := NewEventBus(clock)
	ch := make(chan Event, 4)
	require.NoError(t, bus.Subscribe("seq", ch))

	bus.Publish(Event{Kind: EventReaderEntered})
	bus.Publish(Event{Kind: EventReaderExited})

	first := <-ch
	second := <-ch
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, clock.Now(), first.Timestamp)
}

// TestClosedBusIsInert validates shutdown behaviour: Publish becomes a
// silent no-op and registration is refused.
func TestClosedBusIsInert(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(clockwork.NewRealClock())
	ch := make(chan Event, 1)
	require.NoError(t, bus.Subscribe("x", ch))
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close()) // idempotent

	bus.Publish(Event{Kind: EventAgentWoke})
	assert.Empty(t, ch)
	assert.Zero(t, bus.Stats().Published)

	assert.ErrorIs(t, bus.Subscribe("y", ch), ErrBusClosed)
	assert.ErrorIs(t, bus.Unsubscribe("x"), ErrBusClosed)
}

func TestEventKindStrings(t *testing.T) {
	t.Parallel()

	kinds := map[EventKind]string{
		EventReaderEntered:     "reader_entered",
		EventReaderExited:      "reader_exited",
		EventRequestQueued:     "request_queued",
		EventAgentWoke:         "agent_woke",
		EventRequestProcessing: "request_processing",
		EventBookDelivered:     "book_delivered",
		EventBookUnavailable:   "book_unavailable",
		EventAgentSleeping:     "agent_sleeping",
	}
	for kind, want := range kinds {
		assert.Equal(t, want, kind.String())
	}
}
