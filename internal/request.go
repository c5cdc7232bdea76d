package internal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// OutcomeKind classifies the result of a borrow request.
type OutcomeKind uint8

const (
	// OutcomeDelivered means a book was handed out; Remaining carries the
	// count left in the catalog.
	OutcomeDelivered OutcomeKind = iota

	// OutcomeOutOfStock means the catalog was empty. A normal business
	// outcome, not a fault.
	OutcomeOutOfStock

	// OutcomeCancelled means shutdown (or the caller's context) unblocked
	// the request before it could be served.
	OutcomeCancelled
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeOutOfStock:
		return "out_of_stock"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single result every borrow request eventually yields.
type Outcome struct {
	Kind      OutcomeKind
	Remaining int // books left after delivery; meaningful for OutcomeDelivered only
}

// BorrowRequest is one borrower's withdrawal request. It is owned by the
// queue until taken by the librarian, then by the librarian until
// resolved. Exactly one outcome is ever delivered per request.
type BorrowRequest struct {
	ID          uuid.UUID
	BorrowerID  string
	SubmittedAt time.Time

	once  sync.Once
	reply chan Outcome
}

// NewBorrowRequest creates a request with a fresh ID and a buffered reply
// channel, so resolving never blocks on an absent borrower.
func NewBorrowRequest(borrowerID string, now time.Time) *BorrowRequest {
	return &BorrowRequest{
		ID:          uuid.New(),
		BorrowerID:  borrowerID,
		SubmittedAt: now,
		reply:       make(chan Outcome, 1),
	}
}

// Resolve delivers the outcome to the originating borrower. Subsequent
// calls are no-ops, which keeps the exactly-one-outcome contract under
// shutdown races.
func (r *BorrowRequest) Resolve(out Outcome) {
	r.once.Do(func() {
		r.reply <- out
	})
}

// Reply returns the channel the outcome arrives on.
func (r *BorrowRequest) Reply() <-chan Outcome {
	return r.reply
}
