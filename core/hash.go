package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// NormalizeContent canonicalizes chunk text before hashing.
// Leading and trailing whitespace is dropped and internal whitespace runs
// collapse to a single space. Case is preserved.
func NormalizeContent(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContentHash returns the hex BLAKE2b-256 digest of the normalized text.
// Identical content, modulo whitespace, always yields the same hash.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(NormalizeContent(text)))
	return hex.EncodeToString(sum[:])
}
