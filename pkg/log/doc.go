/*
Package log provides structured logging for Aeon using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for the
labeler's recurring fields. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                   │          │
	│  │  - Zerolog instance                        │          │
	│  │  - Initialized via log.Init()              │          │
	│  │  - Thread-safe for concurrent use          │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                    │          │
	│  │  - Level: debug/info/warn/error            │          │
	│  │  - Format: JSON or console (human)         │          │
	│  │  - Output: stdout, file, or custom writer  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                  │          │
	│  │  - WithComponent("engine")                 │          │
	│  │  - WithComponent("firehose")               │          │
	│  │  - WithSubject("did:plc:...")              │          │
	│  │  - WithLabel("fklr")                       │          │
	│  └────────────────────────────────────────────┘          │
	└──────────────────────────────────────────────────────────┘

# Usage

Initialize once at process start:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Create component loggers for long-running subsystems:

	logger := log.WithComponent("firehose")
	logger.Info().Int64("cursor", pos).Msg("resumed feed")

Use structured fields rather than string concatenation:

	logger.Warn().
		Str("subject", did).
		Str("rkey", rkey).
		Err(err).
		Msg("event dropped")

# Log Levels

  - debug: per-event detail (unknown triggers, dedup hits); off in production
  - info: lifecycle events (connect, resume, label applied/removed)
  - warn: dropped events, validation failures from the feed
  - error: store failures, connection loss

# Best Practices

Do:
  - Use Info level for production
  - Create component-specific loggers
  - Log errors with .Err() so the cause chain is preserved
  - Include subject and trigger key context on every dropped event

Don't:
  - Log account credentials or the signing key
  - Use Debug level in production
  - Concatenate strings (use .Str, .Int64)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
