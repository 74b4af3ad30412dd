// Package service provides integrity protection for the audit trail.
package service

import (
	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

// Signer generates and verifies audit event signatures.
type Signer interface {
	// Sign generates a signature over the canonical form of the event.
	Sign(key []byte, event *auditDomain.Event) ([]byte, error)

	// Verify checks the event's stored signature against its content.
	// Returns nil if valid, ErrSignatureInvalid otherwise.
	Verify(key []byte, event *auditDomain.Event) error
}
