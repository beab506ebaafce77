package engine

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovnanova/aeon/pkg/catalog"
	"github.com/ovnanova/aeon/pkg/labelstore"
	"github.com/ovnanova/aeon/pkg/log"
)

const (
	serviceDID      = "did:plc:zzzzzzzzzzzzzzzzzzzzzzzz"
	subjectDID      = "did:plc:aaaaaaaaaaaaaaaaaaaaaaaa"
	otherDID        = "did:plc:bbbbbbbbbbbbbbbbbbbbbbbb"
	fklrTrigger     = "3l7jy3e7hhp2f"
	mnrvTrigger     = "3l7jy4kzr6c2d"
	decommissionKey = "self"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
}

// memCounters tracks per-label counts for assertions
type memCounters struct {
	counts map[string]int64
}

func newMemCounters() *memCounters {
	return &memCounters{counts: make(map[string]int64)}
}

func (c *memCounters) Inc(label string) error {
	c.counts[label]++
	return nil
}

func (c *memCounters) Dec(label string) error {
	if c.counts[label] > 0 {
		c.counts[label]--
	}
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *labelstore.MemStore, *memCounters) {
	t.Helper()
	store := labelstore.NewMemStore()
	counters := newMemCounters()
	eng := New(Config{
		ServiceDID:      serviceDID,
		DecommissionKey: decommissionKey,
		Catalog:         catalog.Default(),
		Store:           store,
		Counters:        counters,
	})
	return eng, store, counters
}

func effective(t *testing.T, store labelstore.Store, subject string) []string {
	t.Helper()
	rows, err := store.QueryLabels(context.Background(), subject, nil)
	require.NoError(t, err)
	return labelstore.EffectiveValues(rows)
}

func TestAssignFreshSubject(t *testing.T) {
	eng, store, counters := newTestEngine(t)
	ctx := context.Background()

	outcome, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	// Exactly one create call, zero negations
	assert.Equal(t, 1, store.CreateCalls)
	assert.Equal(t, []string{"fklr"}, effective(t, store, subjectDID))
	assert.Equal(t, int64(1), counters.counts["fklr"])
}

func TestAssignIdempotent(t *testing.T) {
	eng, store, counters := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	store.ResetCounts()

	outcome, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)

	// The duplicate performs zero store-mutating operations
	assert.Equal(t, 0, store.CreateCalls)
	assert.Equal(t, []string{"fklr"}, effective(t, store, subjectDID))
	assert.Equal(t, int64(1), counters.counts["fklr"])
}

func TestAssignSupersedesPriorLabel(t *testing.T) {
	eng, store, counters := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)

	outcome, err := eng.Reconcile(ctx, subjectDID, mnrvTrigger)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	assert.Equal(t, []string{"mnrv"}, effective(t, store, subjectDID))
	assert.Equal(t, int64(0), counters.counts["fklr"])
	assert.Equal(t, int64(1), counters.counts["mnrv"])
}

func TestMutualExclusivity(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	// Any sequence of reconciles leaves at most one effective label,
	// since the default catalog is one category per identifier
	sequence := []string{fklrTrigger, mnrvTrigger, fklrTrigger, fklrTrigger, mnrvTrigger}
	for _, trigger := range sequence {
		_, err := eng.Reconcile(ctx, subjectDID, trigger)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"mnrv"}, effective(t, store, subjectDID))
}

func TestMultiLabelCategoryNegatesAll(t *testing.T) {
	// Two identifiers sharing one category: assigning the second negates
	// the first even though identifier != category
	cat, err := catalog.New([]catalog.Label{
		{Identifier: "fklr", Category: "fctn", TriggerKey: fklrTrigger},
		{Identifier: "mnrv", Category: "fctn", TriggerKey: mnrvTrigger},
	})
	require.NoError(t, err)

	store := labelstore.NewMemStore()
	eng := New(Config{
		ServiceDID:      serviceDID,
		DecommissionKey: decommissionKey,
		Catalog:         cat,
		Store:           store,
		Counters:        newMemCounters(),
	})
	ctx := context.Background()

	_, err = eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	_, err = eng.Reconcile(ctx, subjectDID, mnrvTrigger)
	require.NoError(t, err)

	assert.Equal(t, []string{"mnrv"}, effective(t, store, subjectDID))
}

func TestSelfGuard(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	// Blocked regardless of the trigger key: known, decommission,
	// unknown-but-well-formed, and malformed alike.
	for _, trigger := range []string{fklrTrigger, decommissionKey, "zzzzzzzzzzzzz", "not-a-key!", ""} {
		outcome, err := eng.Reconcile(ctx, serviceDID, trigger)
		require.NoError(t, err)
		assert.Equal(t, OutcomeBlocked, outcome)
	}

	assert.Equal(t, 0, store.QueryCalls)
	assert.Equal(t, 0, store.CreateCalls)
}

func TestUnknownTrigger(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	outcome, err := eng.Reconcile(ctx, subjectDID, "zzzzzzzzzzzzz")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownTrigger, outcome)

	// Never touches the store
	assert.Equal(t, 0, store.QueryCalls)
	assert.Equal(t, 0, store.CreateCalls)
}

func TestRemoval(t *testing.T) {
	eng, store, counters := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	require.Equal(t, int64(1), counters.counts["fklr"])

	outcome, err := eng.Reconcile(ctx, subjectDID, decommissionKey)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Empty(t, effective(t, store, subjectDID))
	assert.Equal(t, int64(0), counters.counts["fklr"])

	// Removing again is a no-op with zero mutations
	store.ResetCounts()
	outcome, err = eng.Reconcile(ctx, subjectDID, decommissionKey)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Equal(t, 0, store.CreateCalls)
	assert.Equal(t, int64(0), counters.counts["fklr"])
}

func TestValidationBeforeStoreIO(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		subject string
		trigger string
		field   string
	}{
		{
			name:    "malformed subject",
			subject: "did:plc:tooshort",
			trigger: fklrTrigger,
			field:   "subject",
		},
		{
			name:    "malformed trigger key",
			subject: subjectDID,
			trigger: "not-a-key",
			field:   "trigger_key",
		},
		{
			name:    "empty subject",
			subject: "",
			trigger: fklrTrigger,
			field:   "subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Reconcile(ctx, tt.subject, tt.trigger)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// Zero store calls across all validation failures
	assert.Equal(t, 0, store.QueryCalls)
	assert.Equal(t, 0, store.CreateCalls)
}

func TestStoreFailureSurfaced(t *testing.T) {
	eng, store, counters := newTestEngine(t)
	ctx := context.Background()

	cause := errors.New("label server unavailable")
	store.FailCreates = cause

	_, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "create", serr.Op)
	assert.Equal(t, subjectDID, serr.Subject)
	assert.Equal(t, "fklr", serr.Label)
	assert.ErrorIs(t, err, cause)

	// No counter movement on failure
	assert.Equal(t, int64(0), counters.counts["fklr"])
}

func TestConcreteScenario(t *testing.T) {
	// The catalog maps trigger 3l7jy3e7hhp2f to fklr. A fresh subject gets
	// one create and no negations; a duplicate is a no-op; decommission
	// negates exactly fklr and returns the counter to zero.
	eng, store, counters := newTestEngine(t)
	ctx := context.Background()

	outcome, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, 1, store.CreateCalls)
	assert.Equal(t, int64(1), counters.counts["fklr"])

	store.ResetCounts()
	outcome, err = eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Equal(t, 0, store.CreateCalls)
	assert.Equal(t, int64(1), counters.counts["fklr"])

	outcome, err = eng.Reconcile(ctx, subjectDID, decommissionKey)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Empty(t, effective(t, store, subjectDID))
	assert.Equal(t, int64(0), counters.counts["fklr"])
}

func TestReconcileDistinctSubjectsIndependent(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Reconcile(ctx, subjectDID, fklrTrigger)
	require.NoError(t, err)
	_, err = eng.Reconcile(ctx, otherDID, mnrvTrigger)
	require.NoError(t, err)

	assert.Equal(t, []string{"fklr"}, effective(t, store, subjectDID))
	assert.Equal(t, []string{"mnrv"}, effective(t, store, otherDID))
}
