package domain

import (
	"github.com/allisson/credguard/internal/errors"
)

// Sanitizer errors.
var (
	// ErrInputTooLarge indicates the whole input document exceeds the size cap.
	ErrInputTooLarge = errors.Wrap(errors.ErrInvalidInput, "input exceeds maximum size")

	// ErrThreatBlocked indicates strict mode rejected the input.
	ErrThreatBlocked = errors.Wrap(errors.ErrThreatDetected, "input blocked by threat detection")
)
