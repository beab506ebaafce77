package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovnanova/aeon/pkg/api"
	"github.com/ovnanova/aeon/pkg/catalog"
	"github.com/ovnanova/aeon/pkg/cursor"
	"github.com/ovnanova/aeon/pkg/engine"
	"github.com/ovnanova/aeon/pkg/events"
	"github.com/ovnanova/aeon/pkg/firehose"
	"github.com/ovnanova/aeon/pkg/identity"
	"github.com/ovnanova/aeon/pkg/labelstore"
	"github.com/ovnanova/aeon/pkg/log"
	"github.com/ovnanova/aeon/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the labeler service",
	Long: `Run the labeler: connect to the commit event feed, reconcile label
state for every like on a designated post, persist the resume cursor,
and expose the operational HTTP surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %v", err)
		}
		if err := identity.ValidateDID(cfg.ServiceDID); err != nil {
			return fmt.Errorf("invalid service_did: %v", err)
		}
		if cfg.SigningKey != "" {
			if err := identity.ValidateSigningKey(cfg.SigningKey); err != nil {
				return fmt.Errorf("invalid signing_key: %v", err)
			}
		}
		initLogging(cfg)

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}

		fmt.Println("Starting Aeon labeler...")
		fmt.Printf("  Service DID: %s\n", cfg.ServiceDID)
		fmt.Printf("  Feed: %s\n", cfg.FeedURL)
		fmt.Printf("  Ops Address: %s\n", cfg.ListenAddr)
		fmt.Printf("  Data Directory: %s\n", cfg.DataDir)
		fmt.Println()

		// Stores
		store, err := labelstore.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open label store: %v", err)
		}
		defer store.Close()

		counters, err := metrics.NewCounterStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open counter store: %v", err)
		}
		defer counters.Close()

		cursorStore, err := cursor.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open cursor store: %v", err)
		}
		defer cursorStore.Close()

		// A missing cursor seeds to now: a fresh deployment starts from
		// the present instead of replaying upstream history.
		pos, found, err := cursorStore.Load()
		if err != nil {
			return fmt.Errorf("failed to load cursor: %v", err)
		}
		if !found {
			pos = time.Now().UnixMicro()
		}

		// Engine
		eng := engine.New(engine.Config{
			ServiceDID:      cfg.ServiceDID,
			DecommissionKey: cfg.DecommissionKey,
			Catalog:         catalog.Default(),
			Store:           store,
			Counters:        counters,
		})
		fmt.Println("✓ Engine ready")

		// Event broker
		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		// Feed supervisor
		sup, err := firehose.New(firehose.Config{
			URL:           cfg.FeedURL,
			Collection:    cfg.Collection,
			ServiceDID:    cfg.ServiceDID,
			InitialCursor: pos,
			Broker:        broker,
			Handler:       reconcileHandler(eng, broker),
		})
		if err != nil {
			return fmt.Errorf("failed to create feed supervisor: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sup.Start(ctx)
		fmt.Println("✓ Feed supervisor started")

		// Cursor saver
		saver := cursor.NewSaver(cursorStore, sup, time.Duration(cfg.CursorSaveInterval))
		saver.Start()
		fmt.Println("✓ Cursor saver started")

		// Ops server
		opsServer := api.NewServer(api.Config{
			Addr:   cfg.ListenAddr,
			Ready:  sup.Connected,
			Store:  store,
			Broker: broker,
		})
		errCh := make(chan error, 1)
		go func() {
			if err := opsServer.Start(); err != nil {
				errCh <- fmt.Errorf("ops server error: %v", err)
			}
		}()

		fmt.Println()
		fmt.Println("Labeler is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		}

		// Shutdown in reverse order: stop the feed first so the saver's
		// final save captures the last delivered position.
		sup.Shutdown()
		saver.Stop()
		if err := opsServer.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown ops server: %v", err)
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

// reconcileHandler adapts the engine to the feed supervisor: it times
// each call, counts outcomes, and publishes label change events.
// Failed events are logged here with severity matching the failure
// (malformed input at warn, store I/O at error) and then dropped.
func reconcileHandler(eng *engine.Engine, broker *events.Broker) firehose.Handler {
	logger := log.WithComponent("serve")
	return func(ctx context.Context, subject, recordKey string) error {
		timer := metrics.NewTimer()
		outcome, err := eng.Reconcile(ctx, subject, recordKey)
		timer.ObserveDuration(metrics.ReconcileDuration)

		if err != nil {
			metrics.EventsProcessed.WithLabelValues("error").Inc()
			var ve *engine.ValidationError
			if errors.As(err, &ve) {
				logger.Warn().Err(err).Str("subject", subject).Msg("event rejected")
				return nil
			}
			return err
		}
		metrics.EventsProcessed.WithLabelValues(outcome.String()).Inc()

		switch outcome {
		case engine.OutcomeApplied:
			ev := events.New(events.EventLabelApplied)
			ev.Subject = subject
			broker.Publish(ev)
		case engine.OutcomeRemoved:
			ev := events.New(events.EventLabelRemoved)
			ev.Subject = subject
			broker.Publish(ev)
		}
		return nil
	}
}
