package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roham-amd/smart-library/internal/syncutil"
)

var (
	// ErrQueueClosed is returned to callers unblocked by shutdown.
	ErrQueueClosed = errors.New("request queue is closed")

	// ErrQueueFull is returned by TryPut when the queue is at capacity.
	ErrQueueFull = errors.New("request queue is full")
)

// RequestQueue is the fixed-capacity FIFO handoff between borrowers and
// the librarian. Put blocks while full, Take blocks while empty.
//
// The emptiness check and the wait are one critical section, so a Put
// that lands between a consumer's check and its sleep is always observed.
// Ordering is strict FIFO: no reordering, no duplication, no loss.
type RequestQueue struct {
	mu       syncutil.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []*BorrowRequest
	capacity int
	closed   bool
}

// NewRequestQueue creates a queue with the given fixed capacity.
// Capacity is immutable after construction.
func NewRequestQueue(capacity int) (*RequestQueue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", capacity)
	}
	q := &RequestQueue{
		items:    make([]*BorrowRequest, 0, capacity),
		capacity: capacity,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Put appends req at the tail, blocking while the queue is full.
// Returns ErrQueueClosed after Close(), or ctx.Err() if cancelled
// while blocked.
func (q *RequestQueue) Put(ctx context.Context, req *BorrowRequest) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notFull.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(q.items) < q.capacity {
			break
		}
		q.notFull.Wait()
	}

	q.appendLocked(req)
	return nil
}

// TryPut appends req without blocking. Returns ErrQueueFull immediately
// when at capacity.
func (q *RequestQueue) TryPut(req *BorrowRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if len(q.items) >= q.capacity {
		return ErrQueueFull
	}
	q.appendLocked(req)
	return nil
}

func (q *RequestQueue) appendLocked(req *BorrowRequest) {
	q.items = append(q.items, req)
	if len(q.items) > q.capacity {
		panic(fmt.Sprintf("smart-library: queue length %d exceeds capacity %d", len(q.items), q.capacity))
	}
	// Wake one consumer; a sleeping librarian wakes here.
	q.notEmpty.Signal()
}

// Take removes and returns the head item, blocking while the queue is
// empty. Fails fast with ErrQueueClosed after Close(); remaining items
// are handed out via Drain instead.
func (q *RequestQueue) Take(ctx context.Context) (*BorrowRequest, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return nil, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(q.items) > 0 {
			break
		}
		q.notEmpty.Wait()
	}

	return q.popLocked(), nil
}

// TryTake removes and returns the head item without blocking.
// The second return is false when the queue is empty or closed.
func (q *RequestQueue) TryTake() (*BorrowRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.items) == 0 {
		return nil, false
	}
	return q.popLocked(), true
}

func (q *RequestQueue) popLocked() *BorrowRequest {
	req := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.notFull.Signal()
	return req
}

// Len returns the current queue length.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the fixed capacity.
func (q *RequestQueue) Cap() int {
	return q.capacity
}

// Close unblocks every Put and Take with ErrQueueClosed. Idempotent.
func (q *RequestQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mu.Unlock()
}

// Drain removes and returns all pending items. Called during shutdown so
// queued requests can be resolved as cancelled rather than silently lost.
func (q *RequestQueue) Drain() []*BorrowRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.items
	q.items = nil
	q.notFull.Broadcast()
	return pending
}
