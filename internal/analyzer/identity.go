package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// IDLength is the length of query identities and fingerprints.
const IDLength = 8

var (
	numberLiteralRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	stringLiteralRe = regexp.MustCompile(`'[^']*'`)
)

// Normalize collapses whitespace and lowercases SQL text so formatting
// differences do not change a statement's identity.
func Normalize(sql string) string {
	return strings.ToLower(strings.Join(strings.Fields(sql), " "))
}

// QueryID returns the deterministic 8-character identity of a statement.
// Identical SQL text always yields the same identity; distinct normalized
// text collides only with negligible probability.
func QueryID(sql string) string {
	return shortHash(Normalize(sql))
}

// Fingerprint returns the identity of a statement's shape: the normalized
// text with numeric and quoted-string literals replaced by placeholders.
// Statements differing only in literal values share a fingerprint, which
// is what N+1 detection keys on.
func Fingerprint(sql string) string {
	shape := stringLiteralRe.ReplaceAllString(Normalize(sql), "?")
	shape = numberLiteralRe.ReplaceAllString(shape, "?")
	return shortHash(shape)
}

func shortHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:IDLength]
}
