package internal

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestQueueFIFOProperty drives the queue with a random interleaving of
// non-blocking puts and takes and compares it against a plain slice
// model: same acceptance decisions, same ordering, same length.
func TestQueueFIFOProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(rt, "capacity")
		q, err := NewRequestQueue(capacity)
		if err != nil {
			rt.Fatalf("NewRequestQueue(%d): %v", capacity, err)
		}

		var model []*BorrowRequest
		steps := rapid.IntRange(1, 200).Draw(rt, "steps")

		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(rt, "put") {
				req := NewBorrowRequest("prop", time.Unix(0, 0))
				err := q.TryPut(req)
				if len(model) < capacity {
					if err != nil {
						rt.Fatalf("TryPut rejected with %d/%d queued: %v", len(model), capacity, err)
					}
					model = append(model, req)
				} else if err != ErrQueueFull {
					rt.Fatalf("TryPut on full queue returned %v, want ErrQueueFull", err)
				}
			} else {
				got, ok := q.TryTake()
				if len(model) == 0 {
					if ok {
						rt.Fatalf("TryTake returned an item from an empty queue")
					}
				} else {
					if !ok {
						rt.Fatalf("TryTake failed with %d items queued", len(model))
					}
					if got != model[0] {
						rt.Fatalf("TryTake broke FIFO order: got %v, want %v", got.ID, model[0].ID)
					}
					model = model[1:]
				}
			}

			if q.Len() != len(model) {
				rt.Fatalf("length diverged: queue=%d model=%d", q.Len(), len(model))
			}
		}
	})
}
