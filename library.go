package smartlibrary

import (
	"context"

	"github.com/roham-amd/smart-library/internal"
)

// Public API - re-export internal types as the stable contract.

// Config carries the construction parameters, immutable after New.
type Config = internal.Config

// Stats is a snapshot of the whole coordination core.
type Stats = internal.Stats

// EventBusStats is a snapshot of event delivery counters.
type EventBusStats = internal.EventBusStats

// SubscriberStats tracks delivery counters for a single subscriber.
type SubscriberStats = internal.SubscriberStats

// Event is one entry in the observability stream.
type Event = internal.Event

// EventKind identifies a discrete coordination event.
type EventKind = internal.EventKind

// Event kinds emitted by the core.
const (
	EventReaderEntered     = internal.EventReaderEntered
	EventReaderExited      = internal.EventReaderExited
	EventRequestQueued     = internal.EventRequestQueued
	EventAgentWoke         = internal.EventAgentWoke
	EventRequestProcessing = internal.EventRequestProcessing
	EventBookDelivered     = internal.EventBookDelivered
	EventBookUnavailable   = internal.EventBookUnavailable
	EventAgentSleeping     = internal.EventAgentSleeping
)

// BorrowRequest is a borrower's withdrawal request.
type BorrowRequest = internal.BorrowRequest

// Outcome is the single result every borrow request eventually yields.
type Outcome = internal.Outcome

// OutcomeKind classifies a borrow outcome.
type OutcomeKind = internal.OutcomeKind

// Borrow outcomes.
const (
	OutcomeDelivered  = internal.OutcomeDelivered
	OutcomeOutOfStock = internal.OutcomeOutOfStock
	OutcomeCancelled  = internal.OutcomeCancelled
)

// AgentState is the librarian's scheduling state.
type AgentState = internal.AgentState

// Librarian states.
const (
	StateSleeping   = internal.StateSleeping
	StateAwake      = internal.StateAwake
	StateProcessing = internal.StateProcessing
	StateStopped    = internal.StateStopped
)

// Public API errors - re-export internal errors as the stable contract.
var (
	ErrAlreadyStarted     = internal.ErrAlreadyStarted
	ErrStopped            = internal.ErrStopped
	ErrGateClosed         = internal.ErrGateClosed
	ErrQueueClosed        = internal.ErrQueueClosed
	ErrQueueFull          = internal.ErrQueueFull
	ErrSubscriberExists   = internal.ErrSubscriberExists
	ErrSubscriberNotFound = internal.ErrSubscriberNotFound
	ErrBusClosed          = internal.ErrBusClosed
	ErrNilChannel         = internal.ErrNilChannel
)

// Library is the public interface of the coordination core.
//
// Lifecycle: New() -> Start() -> BeginRead/Borrow/... -> Stop().
// All methods are safe for concurrent use.
type Library interface {
	// Start spawns the librarian loop. Must be called before Borrow.
	// Only the first call succeeds.
	Start(ctx context.Context) error

	// Stop runs the cancellation sequence and joins the librarian.
	// Blocked callers are released with a cancelled result; queued
	// requests are resolved as Cancelled. Idempotent.
	Stop() error

	// BeginRead admits the caller as a reader, blocking while a writer
	// is active or waiting. Pair with EndRead.
	BeginRead(ctx context.Context) error

	// EndRead releases the caller's read admission.
	// Panics without a matching BeginRead.
	EndRead()

	// Borrow submits a request and blocks until its outcome arrives.
	// Blocks while the queue is full. The returned error is non-nil only
	// when the request never reached the librarian (shutdown or context
	// cancellation); the outcome kind is Cancelled in that case.
	Borrow(ctx context.Context, borrowerID string) (Outcome, error)

	// SubmitBorrow enqueues a request and returns without waiting for
	// the outcome. The request's Reply channel carries exactly one
	// outcome, even across shutdown.
	SubmitBorrow(ctx context.Context, borrowerID string) (*BorrowRequest, error)

	// TryBorrow is the non-blocking submission variant. A full queue
	// reports ErrQueueFull immediately.
	TryBorrow(borrowerID string) (*BorrowRequest, error)

	// Subscribe registers a buffered channel on the event bus. Events
	// that do not fit are dropped for that subscriber, never queued;
	// the core does not block on its observers.
	Subscribe(id string, ch chan<- Event) error

	// Unsubscribe removes an event subscriber.
	Unsubscribe(id string) error

	// Stats returns a non-blocking snapshot of the core.
	Stats() Stats
}

// New validates cfg and builds the coordination core. Nothing runs until
// Start is called.
func New(cfg Config) (Library, error) {
	return internal.NewSystem(cfg)
}
