package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovnanova/aeon/pkg/catalog"
	"github.com/ovnanova/aeon/pkg/identity"
	"github.com/ovnanova/aeon/pkg/labelstore"
	"github.com/ovnanova/aeon/pkg/log"
)

// Outcome is the result classification of a reconcile call. Self-labeling
// and unknown triggers are expected outcomes, not errors.
type Outcome int

const (
	// OutcomeNoop means the call changed nothing (no active label to
	// remove, or the target label was already effective)
	OutcomeNoop Outcome = iota

	// OutcomeBlocked means the subject is the labeler itself
	OutcomeBlocked

	// OutcomeUnknownTrigger means the trigger key is outside the catalog
	OutcomeUnknownTrigger

	// OutcomeApplied means a new label assertion was created
	OutcomeApplied

	// OutcomeRemoved means active labels were negated with no replacement
	OutcomeRemoved
)

// String returns a human-readable outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeUnknownTrigger:
		return "unknown-trigger"
	case OutcomeApplied:
		return "applied"
	case OutcomeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Counters is the side-channel per-label counter consumed on successful
// reconciliation. Counter failures never fail the reconcile itself.
type Counters interface {
	Inc(label string) error
	Dec(label string) error
}

// Config holds the engine's injected collaborators and identity
type Config struct {
	// ServiceDID is the labeler's own identifier; events for it are blocked
	ServiceDID string

	// DecommissionKey is the sentinel trigger meaning "remove all labels"
	DecommissionKey string

	Catalog  *catalog.Catalog
	Store    labelstore.Store
	Counters Counters
}

// Engine applies the label state-reconciliation rules: at most one
// effective label per category per subject, superseded labels negated,
// duplicate and reordered events converging to the same state.
//
// The engine holds no mutable per-subject state; every call re-reads the
// store. It performs no serialization of its own: the caller delivers
// events one at a time.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a reconciliation engine
func New(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: log.WithComponent("engine"),
	}
}

// Reconcile resolves the trigger record key for subject and converges the
// subject's label state: the target label becomes the only effective label
// in its category, or all labels are removed for the decommission sentinel.
//
// Validation happens before any store I/O. Malformed input returns a
// *ValidationError; store failures return a *StoreError wrapping the cause.
func (e *Engine) Reconcile(ctx context.Context, subject, triggerKey string) (Outcome, error) {
	if err := identity.ValidateDID(subject); err != nil {
		return OutcomeNoop, &ValidationError{Field: "subject", Value: subject, Err: err}
	}
	// Guard against the labeler labeling itself. The guard precedes
	// trigger validation: an event for the service's own DID is blocked
	// no matter what its trigger key looks like.
	if subject == e.cfg.ServiceDID {
		e.logger.Debug().Str("rkey", triggerKey).Msg("self-labeling blocked")
		return OutcomeBlocked, nil
	}

	if triggerKey == e.cfg.DecommissionKey {
		return e.removeAll(ctx, subject)
	}
	if err := identity.ValidateRecordKey(triggerKey); err != nil {
		return OutcomeNoop, &ValidationError{Field: "trigger_key", Value: triggerKey, Err: err}
	}
	return e.assign(ctx, subject, triggerKey)
}

// assign applies the label resolved from triggerKey, negating every other
// effective label in its category first.
func (e *Engine) assign(ctx context.Context, subject, triggerKey string) (Outcome, error) {
	target, ok := e.cfg.Catalog.ResolveTrigger(triggerKey)
	if !ok {
		// An unrecognized post is outside the labeler's concern
		e.logger.Debug().Str("subject", subject).Str("rkey", triggerKey).Msg("trigger not in catalog")
		return OutcomeUnknownTrigger, nil
	}

	// The query is scoped to every identifier sharing the target's
	// category, not just the target: categories may hold several labels.
	rows, err := e.cfg.Store.QueryLabels(ctx, subject, e.cfg.Catalog.InCategory(target.Category))
	if err != nil {
		return OutcomeNoop, &StoreError{Op: "query", Subject: subject, Label: target.Identifier, Err: err}
	}
	effective := labelstore.EffectiveValues(rows)

	// Idempotence: the target already being the sole effective label means
	// a duplicate delivery, not new intent
	if len(effective) == 1 && effective[0] == target.Identifier {
		e.logger.Debug().Str("subject", subject).Str("label", target.Identifier).Msg("label already effective")
		return OutcomeNoop, nil
	}

	now := time.Now().UTC()

	// Negate every effective label in the category before the new
	// assertion, so a committed end state never holds two labels at once
	if len(effective) > 0 {
		negations := make([]labelstore.Record, len(effective))
		for i, val := range effective {
			negations[i] = labelstore.Record{URI: subject, Val: val, Neg: true, CreatedAt: now}
		}
		if err := e.cfg.Store.CreateLabels(ctx, negations); err != nil {
			return OutcomeNoop, &StoreError{Op: "negate", Subject: subject, Label: target.Identifier, Err: err}
		}
	}

	if err := e.cfg.Store.CreateLabel(ctx, labelstore.Record{
		URI: subject, Val: target.Identifier, CreatedAt: now,
	}); err != nil {
		return OutcomeNoop, &StoreError{Op: "create", Subject: subject, Label: target.Identifier, Err: err}
	}

	e.count(func() error { return e.cfg.Counters.Inc(target.Identifier) }, target.Identifier)
	for _, val := range effective {
		e.count(func() error { return e.cfg.Counters.Dec(val) }, val)
	}

	e.logger.Info().
		Str("subject", subject).
		Str("label", target.Identifier).
		Strs("negated", effective).
		Msg("label applied")
	return OutcomeApplied, nil
}

// removeAll negates every effective label for subject across all categories
func (e *Engine) removeAll(ctx context.Context, subject string) (Outcome, error) {
	rows, err := e.cfg.Store.QueryLabels(ctx, subject, nil)
	if err != nil {
		return OutcomeNoop, &StoreError{Op: "query", Subject: subject, Err: err}
	}
	effective := labelstore.EffectiveValues(rows)
	if len(effective) == 0 {
		e.logger.Debug().Str("subject", subject).Msg("no labels to remove")
		return OutcomeNoop, nil
	}

	now := time.Now().UTC()
	negations := make([]labelstore.Record, len(effective))
	for i, val := range effective {
		negations[i] = labelstore.Record{URI: subject, Val: val, Neg: true, CreatedAt: now}
	}
	if err := e.cfg.Store.CreateLabels(ctx, negations); err != nil {
		return OutcomeNoop, &StoreError{Op: "negate", Subject: subject, Err: err}
	}

	for _, val := range effective {
		e.count(func() error { return e.cfg.Counters.Dec(val) }, val)
	}

	e.logger.Info().Str("subject", subject).Strs("removed", effective).Msg("labels removed")
	return OutcomeRemoved, nil
}

// count runs a counter update, logging failures instead of surfacing them:
// the label state already changed, and counters are a side channel.
func (e *Engine) count(fn func() error, label string) {
	if e.cfg.Counters == nil {
		return
	}
	if err := fn(); err != nil {
		e.logger.Warn().Err(err).Str("label", label).Msg("counter update failed")
	}
}
