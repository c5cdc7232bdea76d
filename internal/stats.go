package internal

import "sync/atomic"

// AgentState is the librarian's scheduling state.
type AgentState int32

const (
	// StateSleeping: no work exists; the librarian consumes no CPU until
	// a Put signal arrives.
	StateSleeping AgentState = iota
	// StateAwake: a signal arrived; the librarian is picking up work.
	StateAwake
	// StateProcessing: a request is being served.
	StateProcessing
	// StateStopped: terminal, reached only via shutdown.
	StateStopped
)

// String implements fmt.Stringer.
func (s AgentState) String() string {
	switch s {
	case StateSleeping:
		return "sleeping"
	case StateAwake:
		return "awake"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// outcomeCounters aggregates served outcomes. Owned by the system,
// incremented by the librarian and by the shutdown drain.
type outcomeCounters struct {
	delivered  atomic.Uint64
	outOfStock atomic.Uint64
	cancelled  atomic.Uint64
}

// Stats is a snapshot of the whole coordination core, the moral
// equivalent of the end-of-run statistics report.
type Stats struct {
	// Gate state.
	ActiveReaders int
	WriterActive  bool
	WriterWaiting bool

	// Queue state.
	QueueLength   int
	QueueCapacity int

	// Librarian state.
	AgentState AgentState

	// Catalog state.
	BooksRemaining int

	// Outcome totals since construction.
	Delivered  uint64
	OutOfStock uint64
	Cancelled  uint64

	// Event delivery counters.
	Events EventBusStats
}
