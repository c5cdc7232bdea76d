// Package smartlibrary models contention for a shared book catalog under
// three composed classical concurrency problems: concurrent read access
// with exclusive, non-starving write access (readers-writers), a
// capacity-bounded handoff of borrow requests between producers and a
// single consumer (producer-consumer), and a consumer that idles when no
// work exists and is woken exactly when work arrives (sleeping barber).
//
// # Philosophy
//
// "Block until signalled, never poll. One lock per decision."
//
// Every admission decision is taken under a single critical section, the
// sleeping librarian truly consumes no CPU, and a wakeup can never be
// lost: the emptiness check and the sleep transition are one atomic step
// relative to the producer's signal.
//
// # Architecture
//
// The core sits between external reader/borrower goroutines and an
// external observability sink:
//
//	Readers ──▶ AccessGate ──▶ Catalog (shared, read side)
//	Borrowers ─▶ RequestQueue ─▶ Librarian ─▶ AccessGate ─▶ Catalog (write side)
//	                              │
//	                              └──▶ EventBus ──▶ subscribers (non-blocking)
//
// Borrowers submit requests through a fixed-capacity FIFO queue. The
// single librarian wakes on arrival, serves requests in order, takes
// exclusive write access against concurrent readers, and delivers exactly
// one outcome per request: Delivered, OutOfStock, or Cancelled.
//
// # Basic Usage
//
//	lib, err := smartlibrary.New(smartlibrary.Config{
//	    InitialBooks:  10,
//	    QueueCapacity: 5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := lib.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Stop()
//
//	// Reader side: any number of concurrent readers.
//	if err := lib.BeginRead(ctx); err == nil {
//	    browseCatalog()
//	    lib.EndRead()
//	}
//
//	// Borrower side: blocks until the single librarian serves the request.
//	out, err := lib.Borrow(ctx, "borrower-1")
//	if err == nil && out.Kind == smartlibrary.OutcomeDelivered {
//	    fmt.Println("books remaining:", out.Remaining)
//	}
//
// # Observability
//
// The core is silent. It emits discrete events (ReaderEntered,
// RequestQueued, AgentWoke, BookDelivered, ...) on a one-way bus that
// never blocks the emitter; slow subscribers miss events rather than
// slowing the core down:
//
//	events := make(chan smartlibrary.Event, 64)
//	lib.Subscribe("console", events)
//	go func() {
//	    for ev := range events {
//	        log.Printf("%s seq=%d", ev.Kind, ev.Seq)
//	    }
//	}()
//
// # Shutdown
//
// Stop is idempotent and runs the full cancellation sequence: blocked
// readers, writers and borrowers are released with a cancelled result,
// the sleeping librarian is woken so it can exit, and queued requests are
// resolved as Cancelled. After Stop returns, no goroutine owned by the
// library remains.
package smartlibrary
