package internal

import (
	"context"
	"errors"
	"sync"

	"github.com/roham-amd/smart-library/internal/syncutil"
)

// ErrGateClosed is returned to callers unblocked by shutdown instead of
// the admission they were waiting for.
var ErrGateClosed = errors.New("access gate is closed")

// AccessGate implements the readers-writers admission protocol over the
// shared catalog.
//
// Semantics:
//   - Any number of readers may hold read access concurrently.
//   - A writer holds exclusive access: writerActive implies activeReaders == 0.
//   - Writer priority: a reader arriving while a writer is waiting queues
//     behind that writer. The writer is admitted as soon as the current
//     reader generation drains, which bounds writer starvation.
//
// All admission state lives under one mutex. The reader-count mutation and
// the writer-admission decision are evaluated in the same critical section,
// never as two independently-locked steps.
//
// A blocked caller is released by its own context being cancelled or by
// Close(); both return an error instead of admission.
type AccessGate struct {
	mu      syncutil.Mutex
	readers *sync.Cond // readers wait here while a writer is active or waiting
	writers *sync.Cond // writers wait here while readers are active or another writer holds access

	activeReaders  int
	writerActive   bool
	waitingWriters int

	closed bool
}

// GateSnapshot is a lock-consistent view of the admission state.
type GateSnapshot struct {
	ActiveReaders int
	WriterActive  bool
	WriterWaiting bool
}

// NewAccessGate creates an open gate with no readers or writers.
func NewAccessGate() *AccessGate {
	g := &AccessGate{}
	g.readers = sync.NewCond(&g.mu)
	g.writers = sync.NewCond(&g.mu)
	return g
}

// AcquireRead blocks while a writer is active or waiting, then admits the
// caller as a reader. There is no upper bound on concurrent readers.
//
// Returns ErrGateClosed after Close(), or ctx.Err() if the caller's
// context is cancelled while blocked.
func (g *AccessGate) AcquireRead(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.readers.Broadcast()
		g.mu.Unlock()
	})
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		if g.closed {
			return ErrGateClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// Readers defer to a waiting writer, not just an active one.
		if !g.writerActive && g.waitingWriters == 0 {
			break
		}
		g.readers.Wait()
	}

	g.activeReaders++
	return nil
}

// ReleaseRead ends a read admission. When the last reader leaves, a
// waiting writer (if any) is signalled.
//
// Panics if called without a matching AcquireRead; a negative reader
// count is an unrecoverable invariant violation.
func (g *AccessGate) ReleaseRead() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.activeReaders <= 0 {
		panic("smart-library: ReleaseRead without matching AcquireRead")
	}
	g.activeReaders--
	if g.activeReaders == 0 {
		g.writers.Signal()
	}
}

// AcquireWrite registers the caller as a waiting writer, blocks until no
// reader or writer holds access, then admits it exclusively. Registration
// and admission happen under the same lock, so no reader can slip in
// between the check and the grant.
func (g *AccessGate) AcquireWrite(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.writers.Broadcast()
		g.mu.Unlock()
	})
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.waitingWriters++
	for {
		if g.closed {
			g.abortWriteLocked()
			return ErrGateClosed
		}
		if err := ctx.Err(); err != nil {
			g.abortWriteLocked()
			return err
		}
		if g.activeReaders == 0 && !g.writerActive {
			break
		}
		g.writers.Wait()
	}
	g.waitingWriters--
	g.writerActive = true
	return nil
}

// abortWriteLocked withdraws a waiting writer. Readers blocked behind it
// must be re-evaluated once no writer is waiting. Caller holds g.mu.
func (g *AccessGate) abortWriteLocked() {
	g.waitingWriters--
	if g.waitingWriters == 0 {
		g.readers.Broadcast()
	}
}

// ReleaseWrite ends the exclusive admission and wakes both waiting
// writers and blocked readers. Readers re-check the admission predicate,
// so another waiting writer still takes priority over them.
func (g *AccessGate) ReleaseWrite() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.writerActive {
		panic("smart-library: ReleaseWrite without matching AcquireWrite")
	}
	g.writerActive = false
	g.writers.Signal()
	g.readers.Broadcast()
}

// Close releases every blocked caller with ErrGateClosed. Admissions
// already granted stay valid; their Release calls still work. Idempotent.
func (g *AccessGate) Close() {
	g.mu.Lock()
	g.closed = true
	g.readers.Broadcast()
	g.writers.Broadcast()
	g.mu.Unlock()
}

// Snapshot returns a consistent view of the admission state.
func (g *AccessGate) Snapshot() GateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GateSnapshot{
		ActiveReaders: g.activeReaders,
		WriterActive:  g.writerActive,
		WriterWaiting: g.waitingWriters > 0,
	}
}
