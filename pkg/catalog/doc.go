/*
Package catalog maps trigger record keys to label definitions.

Each catalog entry binds a label identifier to the record key of its
designated trigger post and to a category. The reconciliation rules
treat categories as exclusion groups: a subject holds at most one
effective label per category, and the engine uses InCategory to find
which labels a new assertion must displace.

Catalogs are immutable after construction; New validates every entry
eagerly (identifier format, record key format, uniqueness of both
identifiers and trigger keys) so lookups never fail at runtime.
Default returns the built-in production table.
*/
package catalog
