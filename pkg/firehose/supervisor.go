package firehose

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ovnanova/aeon/pkg/events"
	"github.com/ovnanova/aeon/pkg/log"
	"github.com/ovnanova/aeon/pkg/metrics"
)

// DefaultPostCollection is the collection holding the labeler's
// designated trigger posts.
const DefaultPostCollection = "app.bsky.feed.post"

// DefaultDedupWindow bounds the redelivery-suppression cache
const DefaultDedupWindow = 10 * time.Minute

// shutdownGrace bounds how long Shutdown waits for the read loop
const shutdownGrace = 5 * time.Second

// Handler receives validated (subject, record key) pairs one at a time.
// A returned error means the event was dropped; redelivery by the
// upstream feed is the retry mechanism.
type Handler func(ctx context.Context, subject, recordKey string) error

// Config holds the supervisor's connection parameters
type Config struct {
	// URL is the feed endpoint (ws or wss)
	URL string

	// Collection is the like collection driving label changes
	Collection string

	// ServiceDID scopes subject URIs to the labeler's own posts
	ServiceDID string

	// PostCollection defaults to DefaultPostCollection
	PostCollection string

	// InitialCursor seeds the resume position (microseconds)
	InitialCursor int64

	// Backoff controls reconnect delays; zero value means DefaultBackoff
	Backoff BackoffConfig

	// DedupWindow defaults to DefaultDedupWindow
	DedupWindow time.Duration

	// Handler receives each wanted event
	Handler Handler

	// Broker, when set, receives feed lifecycle events
	Broker *events.Broker
}

// Supervisor owns the upstream feed connection lifecycle: dialing,
// reconnecting with capped jittered backoff, parsing and filtering
// events, and tracking the resume cursor. Events are delivered to the
// handler one at a time on a single goroutine.
type Supervisor struct {
	cfg    Config
	logger zerolog.Logger

	cursor    atomic.Int64
	connected atomic.Bool

	dedup *dedupCache

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	doneCh chan struct{}
}

// New creates a connection supervisor
func New(cfg Config) (*Supervisor, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("firehose: missing feed URL")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("firehose: missing handler")
	}
	if cfg.PostCollection == "" {
		cfg.PostCollection = DefaultPostCollection
	}
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.DedupWindow == 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}

	s := &Supervisor{
		cfg:    cfg,
		logger: log.WithComponent("firehose"),
		dedup:  newDedupCache(cfg.DedupWindow),
		doneCh: make(chan struct{}),
	}
	s.cursor.Store(cfg.InitialCursor)
	return s, nil
}

// Start begins the connection loop
func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Shutdown stops the supervisor: graceful close first, forced teardown
// after a bounded grace period.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		// Unblocks a pending read
		s.conn.Close()
	}
	s.mu.Unlock()

	select {
	case <-s.doneCh:
	case <-time.After(shutdownGrace):
		s.logger.Warn().Msg("shutdown grace period elapsed")
	}
}

// Connected reports whether the feed connection is established
func (s *Supervisor) Connected() bool {
	return s.connected.Load()
}

// Cursor returns the current resume position in microseconds
func (s *Supervisor) Cursor() int64 {
	return s.cursor.Load()
}

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.doneCh)

	// The purge runs on its own goroutine: an idle connection blocks in
	// ReadMessage indefinitely and must not starve cache expiry.
	purgeTicker := time.NewTicker(s.cfg.DedupWindow)
	defer purgeTicker.Stop()
	go func() {
		for {
			select {
			case now := <-purgeTicker.C:
				s.dedup.purge(now)
			case <-ctx.Done():
				return
			}
		}
	}()

	attempt := 0
	sessions := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			delay := s.cfg.Backoff.Delay(attempt)
			attempt++
			metrics.FirehoseReconnects.Inc()
			s.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("retry_in", delay).
				Msg("feed connection failed")

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}

		attempt = 0
		if sessions > 0 {
			metrics.FirehoseReconnects.Inc()
		}
		sessions++
		s.setConn(conn)
		s.connected.Store(true)
		metrics.FirehoseConnected.Set(1)
		s.publish(events.EventFeedConnected, "")
		s.logger.Info().Int64("cursor", s.cursor.Load()).Msg("feed connected")

		s.readLoop(ctx, conn)

		s.connected.Store(false)
		metrics.FirehoseConnected.Set(0)
		s.publish(events.EventFeedDisconnected, "")
		s.setConn(nil)
		conn.Close()

		// Soft pause before re-dialing after a dropped session so a
		// flapping upstream does not produce a hot loop
		select {
		case <-time.After(s.cfg.Backoff.Initial):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	q := u.Query()
	q.Set("wanted_collections", s.cfg.Collection)
	if pos := s.cursor.Load(); pos > 0 {
		q.Set("cursor", strconv.FormatInt(pos, 10))
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// readLoop consumes the connection until it fails or ctx is cancelled
func (s *Supervisor) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("feed read failed")
			}
			return
		}

		s.handle(ctx, raw)
	}
}

func (s *Supervisor) handle(ctx context.Context, raw []byte) {
	trigger, timeUS, reason := extract(raw, s.cfg.Collection, s.cfg.ServiceDID, s.cfg.PostCollection)

	// The cursor advances over unwanted events too: resuming must not
	// replay the whole gap between wanted events.
	s.advance(timeUS)

	if reason != "" {
		metrics.EventsDropped.WithLabelValues(reason).Inc()
		if reason == dropMalformed {
			s.logger.Warn().Msg("malformed feed payload")
		}
		return
	}

	if s.dedup.seenRecently(trigger.Subject+"|"+trigger.RecordKey, time.Now()) {
		metrics.EventsDropped.WithLabelValues(dropDuplicate).Inc()
		s.logger.Debug().
			Str("subject", trigger.Subject).
			Str("rkey", trigger.RecordKey).
			Msg("duplicate event suppressed")
		return
	}

	if err := s.cfg.Handler(ctx, trigger.Subject, trigger.RecordKey); err != nil {
		// A single bad event never stops the feed
		s.logger.Error().
			Err(err).
			Str("subject", trigger.Subject).
			Str("rkey", trigger.RecordKey).
			Msg("event dropped")
	}
}

func (s *Supervisor) advance(timeUS int64) {
	if timeUS <= 0 {
		return
	}
	for {
		current := s.cursor.Load()
		if timeUS <= current {
			return
		}
		if s.cursor.CompareAndSwap(current, timeUS) {
			metrics.CursorPosition.Set(float64(timeUS))
			return
		}
	}
}

func (s *Supervisor) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Supervisor) publish(eventType events.EventType, message string) {
	if s.cfg.Broker == nil {
		return
	}
	ev := events.New(eventType)
	ev.Message = message
	s.cfg.Broker.Publish(ev)
}
