package domain

import (
	"errors"
	"fmt"

	apperrors "github.com/allisson/credguard/internal/errors"
)

// ConflictError is returned by remote clients when a create collides with an
// existing entity. NaturalKey carries the colliding key when the remote
// reports it; without it the conflict cannot be resolved by lookup.
type ConflictError struct {
	NaturalKey string
	Message    string
}

func (e *ConflictError) Error() string {
	if e.NaturalKey == "" {
		return fmt.Sprintf("conflict: %s", e.Message)
	}
	return fmt.Sprintf("conflict on %q: %s", e.NaturalKey, e.Message)
}

// Unwrap makes ConflictError match apperrors.ErrConflict via errors.Is.
func (e *ConflictError) Unwrap() error {
	return apperrors.ErrConflict
}

// OutcomeKind tags the classification of a create error.
type OutcomeKind string

const (
	// OutcomeNone means the error is not a conflict at all.
	OutcomeNone OutcomeKind = "none"

	// OutcomeResolvable means the conflict names a natural key that can be
	// looked up to recover the existing entity.
	OutcomeResolvable OutcomeKind = "resolvable"

	// OutcomeUnresolvable means the conflict carries no usable natural key.
	OutcomeUnresolvable OutcomeKind = "unresolvable"
)

// Outcome is the classification of one create error.
type Outcome struct {
	Kind       OutcomeKind
	NaturalKey string
}

// ClassifyConflict classifies a create error. The function is pure: it
// inspects only the error value and performs no I/O, so the resolver's
// branching is decided before any lookup happens.
func ClassifyConflict(err error) Outcome {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		if conflictErr.NaturalKey == "" {
			return Outcome{Kind: OutcomeUnresolvable}
		}
		return Outcome{Kind: OutcomeResolvable, NaturalKey: conflictErr.NaturalKey}
	}

	if errors.Is(err, apperrors.ErrConflict) {
		return Outcome{Kind: OutcomeUnresolvable}
	}

	return Outcome{Kind: OutcomeNone}
}
