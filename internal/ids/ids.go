// Package ids centralizes identity generation and PII hashing so that a raw
// SSN can never leave the extraction stage through more than one code path.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// New mints an opaque 128-bit identifier for a Document or Borrower.
func New() uuid.UUID {
	return uuid.New()
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// HashSSN returns the sha256 hex digest of the normalized (digits-only) SSN.
// The raw SSN must never be persisted or logged; every call site that needs
// to store or compare an SSN goes through this helper instead of hashing
// ad hoc.
func HashSSN(rawSSN string) string {
	digits := nonDigits.ReplaceAllString(rawSSN, "")
	sum := sha256.Sum256([]byte(digits))
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the sha256 hex digest of arbitrary upload bytes, used
// as the Document's unique content-addressing key.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BlobKey derives an object-store key from a Document id and its content
// hash. The filename plays no part in the key; identical bytes under a
// different Document id get a different key.
func BlobKey(documentID uuid.UUID, contentHash string) string {
	return strings.Join([]string{"documents", documentID.String(), contentHash}, "/")
}
