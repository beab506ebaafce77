package identity

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// DIDPrefix is the method prefix for all subject identifiers
	DIDPrefix = "did:plc:"

	// DIDBodyLen is the exact length of the identifier body after the prefix
	DIDBodyLen = 24

	// RecordKeyLen is the exact length of a trigger post record key
	RecordKeyLen = 13

	// SigningKeySeedLen is the decoded length of signing key material in bytes
	SigningKeySeedLen = 32
)

// isBase32Char reports whether c belongs to the lowercase base32 alphabet
// used by plc identifiers and record keys (a-z2-7, no 0/1/8/9).
func isBase32Char(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')
}

// ValidateDID checks that s is a well-formed plc identifier:
// the literal "did:plc:" prefix followed by exactly 24 lowercase
// base32 characters.
func ValidateDID(s string) error {
	if !strings.HasPrefix(s, DIDPrefix) {
		return fmt.Errorf("invalid DID %q: missing %q prefix", s, DIDPrefix)
	}
	body := s[len(DIDPrefix):]
	if len(body) != DIDBodyLen {
		return fmt.Errorf("invalid DID %q: body must be %d characters, got %d", s, DIDBodyLen, len(body))
	}
	for i := 0; i < len(body); i++ {
		if !isBase32Char(body[i]) {
			return fmt.Errorf("invalid DID %q: character %q at position %d outside base32 alphabet", s, body[i], i)
		}
	}
	return nil
}

// ValidateRecordKey checks that s is a well-formed record key: exactly 13
// lowercase base32 characters. The decommission sentinel is a configuration
// concern and is not accepted here.
func ValidateRecordKey(s string) error {
	if len(s) != RecordKeyLen {
		return fmt.Errorf("invalid record key %q: must be %d characters, got %d", s, RecordKeyLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		if !isBase32Char(s[i]) {
			return fmt.Errorf("invalid record key %q: character %q at position %d outside base32 alphabet", s, s[i], i)
		}
	}
	return nil
}

// ValidateSigningKey checks signing key material: either 64 lowercase hex
// characters or 43 characters of unpadded base64url, both decoding to a
// 32-byte seed. The material is actually decoded, not just length-checked.
func ValidateSigningKey(s string) error {
	if s == "" {
		return fmt.Errorf("invalid signing key: empty")
	}

	switch len(s) {
	case hex.EncodedLen(SigningKeySeedLen):
		if strings.ToLower(s) != s {
			return fmt.Errorf("invalid signing key: hex material must be lowercase")
		}
		raw, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid signing key: %w", err)
		}
		if len(raw) != SigningKeySeedLen {
			return fmt.Errorf("invalid signing key: decoded to %d bytes, want %d", len(raw), SigningKeySeedLen)
		}
		return nil

	case base64.RawURLEncoding.EncodedLen(SigningKeySeedLen):
		raw, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid signing key: %w", err)
		}
		if len(raw) != SigningKeySeedLen {
			return fmt.Errorf("invalid signing key: decoded to %d bytes, want %d", len(raw), SigningKeySeedLen)
		}
		return nil
	}

	return fmt.Errorf("invalid signing key: length %d matches neither hex nor base64url encoding of a %d-byte seed", len(s), SigningKeySeedLen)
}
