/*
Package cursor persists the feed resume position.

The position is the maximum time_us observed on the event feed, stored
as a single 8-byte value in its own BoltDB file. Load reports whether a
position exists at all; a missing cursor means a fresh deployment, and
the caller seeds from the present rather than replaying upstream
history.

Saver snapshots a position source on a fixed interval and once more on
Stop, so a crash loses at most one interval of progress. Re-processing
the lost window is harmless because reconciliation is idempotent.
*/
package cursor
