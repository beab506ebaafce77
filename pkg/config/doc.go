/*
Package config loads and validates the labeler's YAML configuration.

Decoding is strict: unknown keys are rejected so a typo fails loudly at
startup instead of silently falling back to a default. Validation runs
per key (feed URL scheme, collection NSID shape, listen address, save
interval floor, credentials required together), and Get/Set expose the
same keys to the CLI with re-validation on every change.

Redacted returns a copy safe for display, with the signing key and
account password masked. Saved files are written 0600 because they
carry credentials.
*/
package config
