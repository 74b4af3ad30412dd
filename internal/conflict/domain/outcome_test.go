package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/credguard/internal/errors"
)

func TestConflictError(t *testing.T) {
	t.Run("matches ErrConflict", func(t *testing.T) {
		err := &ConflictError{NaturalKey: "acme", Message: "duplicate name"}
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("error message includes natural key", func(t *testing.T) {
		err := &ConflictError{NaturalKey: "acme", Message: "duplicate name"}
		assert.Contains(t, err.Error(), "acme")
	})

	t.Run("error message without natural key", func(t *testing.T) {
		err := &ConflictError{Message: "duplicate"}
		assert.Equal(t, "conflict: duplicate", err.Error())
	})
}

func TestClassifyConflict(t *testing.T) {
	t.Run("conflict with natural key is resolvable", func(t *testing.T) {
		err := &ConflictError{NaturalKey: "acme", Message: "duplicate name"}

		outcome := ClassifyConflict(err)
		assert.Equal(t, OutcomeResolvable, outcome.Kind)
		assert.Equal(t, "acme", outcome.NaturalKey)
	})

	t.Run("wrapped conflict with natural key is resolvable", func(t *testing.T) {
		err := fmt.Errorf("create failed: %w", &ConflictError{NaturalKey: "acme", Message: "dup"})

		outcome := ClassifyConflict(err)
		assert.Equal(t, OutcomeResolvable, outcome.Kind)
		assert.Equal(t, "acme", outcome.NaturalKey)
	})

	t.Run("conflict without natural key is unresolvable", func(t *testing.T) {
		err := &ConflictError{Message: "duplicate"}

		outcome := ClassifyConflict(err)
		assert.Equal(t, OutcomeUnresolvable, outcome.Kind)
		assert.Empty(t, outcome.NaturalKey)
	})

	t.Run("bare ErrConflict is unresolvable", func(t *testing.T) {
		outcome := ClassifyConflict(apperrors.ErrConflict)
		assert.Equal(t, OutcomeUnresolvable, outcome.Kind)
	})

	t.Run("non-conflict errors are none", func(t *testing.T) {
		outcome := ClassifyConflict(errors.New("connection refused"))
		assert.Equal(t, OutcomeNone, outcome.Kind)
	})

	t.Run("classification is deterministic", func(t *testing.T) {
		err := &ConflictError{NaturalKey: "acme", Message: "dup"}

		first := ClassifyConflict(err)
		second := ClassifyConflict(err)
		assert.Equal(t, first, second)
	})
}
