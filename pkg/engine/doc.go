/*
Package engine implements the label state-reconciliation rules.

The engine converges a subject's label state in response to trigger
events: each event names a subject and a trigger record key, and the
engine makes the corresponding label the subject's only effective label
in its category. Labels are never mutated or deleted; state changes are
expressed as new assertion rows, with negation rows retracting earlier
assertions.

# Architecture

Every call follows the same read-reconcile-write shape against the
label store:

	┌───────────────────────────────────────────────────────┐
	│                    Reconcile(subject, trigger)         │
	└───────────────┬───────────────────────────────────────┘
	                │
	     validate subject and trigger
	                │
	    ┌───────────┴────────────┐
	    │                        │
	    ▼                        ▼
	catalog trigger        decommission sentinel
	    │                        │
	    ▼                        ▼
	read effective           read all effective
	labels in category       labels
	    │                        │
	    ▼                        ▼
	negate others,           negate everything
	assert target

The engine holds no mutable state between calls. Idempotence and
order-tolerance come from re-reading the store on every event: a
duplicate event finds the target already effective and writes nothing,
and any interleaving of events for a subject converges to the state
implied by the last one.

# Outcomes

Reconcile returns a closed Outcome enum describing what happened:

	OutcomeApplied         new label asserted (others negated as needed)
	OutcomeRemoved         active labels negated with no replacement
	OutcomeNoop            state already matched; nothing written
	OutcomeBlocked         subject is the labeler itself
	OutcomeUnknownTrigger  trigger key not in the catalog

Blocked and unknown-trigger events return before any store I/O.

# Error Handling

Errors are typed so callers can distinguish bad input from a failing
store:

	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		// malformed subject or trigger; drop the event
	}
	var se *engine.StoreError
	if errors.As(err, &se) {
		// store I/O failed; the event may be retried
	}

Validation always runs before store I/O, so a malformed event can never
leave partial writes behind. Counter failures are logged but never
surfaced: counters are advisory, label rows are the source of truth.

# Usage

	eng := engine.New(engine.Config{
		ServiceDID:      "did:plc:...",
		DecommissionKey: "self",
		Catalog:         catalog.Default(),
		Store:           store,
		Counters:        counters,
	})

	outcome, err := eng.Reconcile(ctx, subjectDID, triggerKey)

The engine performs no serialization of its own: the caller delivers
events for a subject one at a time.

# See Also

  - pkg/catalog - trigger key to label resolution
  - pkg/labelstore - append-only assertion storage
  - pkg/firehose - event source feeding the engine
*/
package engine
