/*
Package firehose maintains the connection to the upstream commit event
feed and turns raw payloads into reconcile calls.

The supervisor owns the websocket lifecycle: it dials the feed with the
resume cursor, reads events on a single goroutine, filters them down to
likes on the labeler's own designated posts, and hands each surviving
(subject, record key) pair to the configured handler.

# Architecture

	┌──────────────┐   dial + cursor    ┌──────────────────┐
	│  Supervisor  │───────────────────▶│  feed endpoint    │
	└──────┬───────┘                    └────────┬─────────┘
	       │  reconnect w/ backoff              │ events
	       │                                     ▼
	       │                        ┌────────────────────────┐
	       │                        │  extract: kind, op,     │
	       │                        │  collection, subject    │
	       │                        └───────────┬────────────┘
	       │                                    │ wanted
	       │                                    ▼
	       │                        ┌────────────────────────┐
	       │                        │  dedup cache            │
	       │                        └───────────┬────────────┘
	       │                                    ▼
	       └───────────────────────▶  Handler(subject, rkey)

Unwanted events (wrong kind, deletes, other collections, likes on
foreign posts) are dropped at the boundary and counted per reason. They
still advance the cursor, so resuming never replays the gap between
wanted events.

# Reconnection

Connection failures back off exponentially with jitter, capped at the
configured maximum. The cursor is the maximum time_us observed, so a
reconnect resumes where the last session left off; upstream replays on
resume are harmless because the reconciliation engine is idempotent.

# Duplicate Suppression

A process-local cache drops (subject, record key) pairs seen within a
retention window. This is purely a load optimization: correctness
against duplicates comes from the engine, not from this cache, and the
cache is empty after every restart.

# Usage

	sup, err := firehose.New(firehose.Config{
		URL:           cfg.FeedURL,
		Collection:    cfg.Collection,
		ServiceDID:    cfg.ServiceDID,
		InitialCursor: pos,
		Handler:       handleEvent,
	})
	sup.Start(ctx)
	defer sup.Shutdown()

Handler errors are logged and the event dropped; a single bad event
never stops the feed.

# See Also

  - pkg/engine - consumes the delivered events
  - pkg/cursor - persists the resume position
*/
package firehose
