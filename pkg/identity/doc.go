/*
Package identity validates the identifier formats the labeler consumes:
subject DIDs (did:plc: with a 24-character base32 body), record keys
(13-character base32), and signing key material (64 hex characters or
43 base64url characters, either way 32 bytes of seed).

Validation is strict by construction: everything that reaches the
reconciliation engine has passed through these checks first, so the
rest of the system never re-validates.
*/
package identity
