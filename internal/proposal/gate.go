package proposal

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// The shared secret is a courtesy gate, not access control: anyone holding
// the link can read the stored record. Hashing only keeps the secret itself
// out of the stored JSON.

// DefaultHashCost is the bcrypt cost used when hashing secrets at finalize.
const DefaultHashCost = bcrypt.DefaultCost

// HashSecret returns the bcrypt hash of a plaintext secret.
// Empty secrets hash to the empty string (no gate).
func HashSecret(secret string, cost int) (string, error) {
	if secret == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// IsHashed reports whether a stored password value is a bcrypt hash rather
// than a plaintext secret imported from the browser client.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// Protected reports whether the proposal is behind a shared secret.
func (p Proposal) Protected() bool {
	return p.Password != ""
}

// Unlock reports whether attempt opens the proposal. Unprotected proposals
// always unlock. A wrong attempt simply returns false; there is no lockout.
//
// Secrets are compared in Unicode NFC, the form the authoring flow hashes.
func (p Proposal) Unlock(attempt string) bool {
	if !p.Protected() {
		return true
	}
	attempt = norm.NFC.String(attempt)
	if IsHashed(p.Password) {
		return bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(attempt)) == nil
	}
	stored := norm.NFC.String(p.Password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(attempt)) == 1
}
