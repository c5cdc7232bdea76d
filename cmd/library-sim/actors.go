package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	smartlibrary "github.com/roham-amd/smart-library"
)

// sleepJitter sleeps a random duration in [minMS, maxMS] or returns early
// on cancellation.
func sleepJitter(ctx context.Context, minMS, maxMS int) bool {
	span := maxMS - minMS
	d := time.Duration(minMS) * time.Millisecond
	if span > 0 {
		d += time.Duration(rand.Intn(span+1)) * time.Millisecond
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// runReader loops: enter the reading section, browse for a while, leave.
// The library admits any number of readers concurrently but parks them
// behind a waiting librarian.
func runReader(ctx context.Context, log zerolog.Logger, lib smartlibrary.Library, id int, cfg Config) error {
	readerID := fmt.Sprintf("reader-%d", id)
	log = log.With().Str("actor", readerID).Logger()

	for {
		if !sleepJitter(ctx, cfg.ReaderThinkMinMS, cfg.ReaderThinkMaxMS) {
			return nil
		}

		err := lib.BeginRead(ctx)
		switch {
		case errors.Is(err, smartlibrary.ErrGateClosed), errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return fmt.Errorf("%s: begin read: %w", readerID, err)
		}

		// Browse the catalog.
		sleepJitter(ctx, cfg.ReaderThinkMinMS, cfg.ReaderThinkMaxMS)
		lib.EndRead()
		log.Debug().Msg("finished reading")
	}
}

// runBorrower loops: submit a borrow request, wait for its outcome,
// think, repeat. Blocking on a full queue is the intended backpressure.
func runBorrower(ctx context.Context, log zerolog.Logger, lib smartlibrary.Library, id int, cfg Config) error {
	borrowerID := fmt.Sprintf("borrower-%d", id)
	log = log.With().Str("actor", borrowerID).Logger()

	for {
		if !sleepJitter(ctx, cfg.BorrowerThinkMinMS, cfg.BorrowerThinkMaxMS) {
			return nil
		}

		out, err := lib.Borrow(ctx, borrowerID)
		switch {
		case errors.Is(err, smartlibrary.ErrQueueClosed), errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return fmt.Errorf("%s: borrow: %w", borrowerID, err)
		}

		switch out.Kind {
		case smartlibrary.OutcomeDelivered:
			log.Debug().Int("remaining", out.Remaining).Msg("got a book")
		case smartlibrary.OutcomeOutOfStock:
			log.Debug().Msg("no books available")
		case smartlibrary.OutcomeCancelled:
			return nil
		}
	}
}
