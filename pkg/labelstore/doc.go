/*
Package labelstore provides append-only storage for label assertions.

A label's lifecycle is a sequence of rows, never an update in place: an
assertion row applies a value to a subject, and a negation row (Neg set)
retracts it. The effective state of a subject is derived by reducing its
rows most-recent-first; EffectiveValues performs that reduction.

# Storage Layout

The BoltDB implementation keeps every row in a single bucket keyed by
subject URI plus a monotonic sequence number:

	labels bucket
	  <uri>\x00<seq: 8-byte big-endian>  →  JSON row

The sequence suffix makes keys unique and orders rows by creation
within a subject, so a prefix scan yields the subject's full history
and reading it backwards yields newest-first.

# Implementations

BoltStore is the production store. MemStore backs tests and records
call counts so tests can assert that an operation performed no store
I/O. Both satisfy the Store interface, and the contract tests in this
package run against each.

# Usage

	store, err := labelstore.NewBoltStore(dataDir)
	...
	recs, err := store.QueryLabels(ctx, subject, nil)
	active := labelstore.EffectiveValues(recs)
*/
package labelstore
