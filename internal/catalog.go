package internal

import (
	"fmt"
	"sync/atomic"
)

// Catalog holds the shared book inventory.
//
// Mutation contract: TakeOne is called only by the librarian, only while
// it holds write access on the AccessGate. The counter is atomic so that
// Stats can read it without acquiring the gate, but the gate remains the
// only thing that makes check-then-decrement indivisible.
type Catalog struct {
	books atomic.Int64
}

// NewCatalog creates a catalog with the given initial book count.
func NewCatalog(initial int) (*Catalog, error) {
	if initial < 0 {
		return nil, fmt.Errorf("initial book count must be non-negative, got %d", initial)
	}
	c := &Catalog{}
	c.books.Store(int64(initial))
	return c, nil
}

// Count returns the current book count.
func (c *Catalog) Count() int {
	return int(c.books.Load())
}

// TakeOne removes one book and reports the remaining count. When the
// catalog is empty it reports ok=false and mutates nothing; an empty
// catalog is a normal outcome, not an error.
//
// Caller must hold write access on the AccessGate.
func (c *Catalog) TakeOne() (remaining int, ok bool) {
	n := c.books.Load()
	if n <= 0 {
		return 0, false
	}
	c.books.Store(n - 1)
	return int(n - 1), true
}
