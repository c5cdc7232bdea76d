// Command library-sim runs the smart-library coordination core with a
// configurable population of reader and borrower actors, streams the
// core's events to the console, and prints the final statistics after a
// timed run. The core itself stays silent; everything printed here comes
// from the one-way event stream and the stats snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	smartlibrary "github.com/roham-amd/smart-library"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (defaults apply if empty)")
	duration := flag.Int("duration", 0, "override simulation duration in seconds")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("failed to load configuration")
		}
	}
	if *duration > 0 {
		cfg.DurationS = *duration
	}

	log.Info().
		Int("readers", cfg.Readers).
		Int("borrowers", cfg.Borrowers).
		Int("initial_books", cfg.InitialBooks).
		Int("queue_capacity", cfg.QueueCapacity).
		Dur("service_time", cfg.ServiceTime()).
		Dur("duration", cfg.Duration()).
		Msg("starting library simulation")

	lib, err := smartlibrary.New(smartlibrary.Config{
		InitialBooks:  cfg.InitialBooks,
		QueueCapacity: cfg.QueueCapacity,
		ServiceTime:   cfg.ServiceTime(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build library")
	}

	// Console sink for the core's event stream. The channel is buffered
	// and the core drops rather than blocks, so a slow terminal can only
	// lose events, never slow the simulation down.
	events := make(chan smartlibrary.Event, 256)
	if err := lib.Subscribe("console", events); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe event sink")
	}
	sinkDone := make(chan struct{})
	go func() {
		defer close(sinkDone)
		for ev := range events {
			logEvent(log, ev)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := lib.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start library")
	}

	// Actors live in one errgroup and are joined after shutdown; their
	// lifecycle belongs to this harness, not to the core.
	group, actorCtx := errgroup.WithContext(ctx)
	for i := 1; i <= cfg.Readers; i++ {
		i := i
		group.Go(func() error { return runReader(actorCtx, log, lib, i, cfg) })
	}
	for i := 1; i <= cfg.Borrowers; i++ {
		i := i
		group.Go(func() error { return runBorrower(actorCtx, log, lib, i, cfg) })
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-time.After(cfg.Duration()):
		log.Info().Msg("simulation time elapsed")
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	}

	// Shutdown: release every blocked actor, then join them.
	cancel()
	if err := lib.Stop(); err != nil {
		log.Error().Err(err).Msg("library shutdown failed")
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("actor failed")
	}
	close(events)
	<-sinkDone

	report(log, lib.Stats())
}

// logEvent renders one core event at debug level, with the handful of
// state transitions promoted to info.
func logEvent(log zerolog.Logger, ev smartlibrary.Event) {
	e := log.Debug()
	switch ev.Kind {
	case smartlibrary.EventAgentWoke, smartlibrary.EventAgentSleeping:
		e = log.Info()
	case smartlibrary.EventBookDelivered, smartlibrary.EventBookUnavailable:
		e = log.Info()
	}
	e = e.Stringer("event", ev.Kind).Uint64("seq", ev.Seq)
	if ev.Request != nil {
		e = e.Str("borrower", ev.Request.BorrowerID)
	}
	switch ev.Kind {
	case smartlibrary.EventBookDelivered:
		e = e.Int("remaining", ev.Remaining)
	case smartlibrary.EventReaderEntered, smartlibrary.EventReaderExited:
		e = e.Int("active_readers", ev.ActiveReaders)
	case smartlibrary.EventRequestQueued:
		e = e.Int("queue_length", ev.QueueLength)
	}
	e.Send()
}

// report prints the end-of-run statistics snapshot.
func report(log zerolog.Logger, stats smartlibrary.Stats) {
	log.Info().
		Int("books_remaining", stats.BooksRemaining).
		Int("pending_requests", stats.QueueLength).
		Int("active_readers", stats.ActiveReaders).
		Uint64("delivered", stats.Delivered).
		Uint64("out_of_stock", stats.OutOfStock).
		Uint64("cancelled", stats.Cancelled).
		Float64("delivery_rate", smartlibrary.DeliveryRate(stats)).
		Uint64("events_published", stats.Events.Published).
		Float64("event_drop_rate", smartlibrary.EventDropRate(stats.Events)).
		Msg("simulation ended")
}
