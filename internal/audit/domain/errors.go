package domain

import (
	"github.com/allisson/credguard/internal/errors"
)

// Audit subsystem errors.
var (
	// ErrSignatureInvalid indicates an audit event signature does not match its
	// content, meaning the trail was tampered with or signed by a different key.
	ErrSignatureInvalid = errors.Wrap(errors.ErrIntegrity, "audit signature invalid")
)
