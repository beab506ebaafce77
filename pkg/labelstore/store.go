package labelstore

import (
	"context"
	"time"
)

// Record is a single label assertion row: append-only, never mutated.
// A row with Neg set revokes the most recent prior row for the same
// (URI, Val) pair.
type Record struct {
	// URI identifies the subject the label is applied to
	URI string `json:"uri"`

	// Val is the label identifier value
	Val string `json:"val"`

	// Neg marks this row as a negation of a prior assertion
	Neg bool `json:"neg,omitempty"`

	// CreatedAt is the assertion timestamp
	CreatedAt time.Time `json:"cts"`
}

// Store is the label store adapter contract. Creation calls are
// append-only; atomicity is guaranteed within a single call, never
// across a negate+create pair.
type Store interface {
	// QueryLabels returns all rows for subject, newest-first. A nil or
	// empty vals slice returns rows for every value; otherwise rows are
	// restricted to the given values.
	QueryLabels(ctx context.Context, subject string, vals []string) ([]Record, error)

	// CreateLabel appends a single assertion row
	CreateLabel(ctx context.Context, rec Record) error

	// CreateLabels appends a batch of assertion rows atomically
	CreateLabels(ctx context.Context, recs []Record) error

	// Close releases store resources
	Close() error
}

// EffectiveValues reduces newest-first rows to the set of currently
// effective values: the most recent row per value determines whether the
// value is active. Order of the result follows first (newest) appearance.
func EffectiveValues(recs []Record) []string {
	seen := make(map[string]bool, len(recs))
	var effective []string
	for _, rec := range recs {
		if seen[rec.Val] {
			continue
		}
		seen[rec.Val] = true
		if !rec.Neg {
			effective = append(effective, rec.Val)
		}
	}
	return effective
}
