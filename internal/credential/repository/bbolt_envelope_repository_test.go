package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/credguard/internal/errors"
)

func TestBBoltEnvelopeRepository(t *testing.T) {
	ctx := context.Background()

	newRepo := func(t *testing.T) *BBoltEnvelopeRepository {
		t.Helper()
		repo, err := NewBBoltEnvelopeRepository(filepath.Join(t.TempDir(), "credentials.db"))
		require.NoError(t, err)
		t.Cleanup(func() {
			assert.NoError(t, repo.Close())
		})
		return repo
	}

	t.Run("save and get round trip", func(t *testing.T) {
		repo := newRepo(t)
		envelope := makeEnvelope(t)

		require.NoError(t, repo.Save(ctx, "tenant:acme", envelope))

		got, err := repo.Get(ctx, "tenant:acme")
		require.NoError(t, err)
		assert.Equal(t, envelope, got)
	})

	t.Run("get missing envelope returns not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(ctx, "tenant:missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("save overwrites existing envelope", func(t *testing.T) {
		repo := newRepo(t)

		first := makeEnvelope(t)
		require.NoError(t, repo.Save(ctx, "tenant:acme", first))

		second := makeEnvelope(t)
		second.MasterKeyID = "key-v2"
		require.NoError(t, repo.Save(ctx, "tenant:acme", second))

		got, err := repo.Get(ctx, "tenant:acme")
		require.NoError(t, err)
		assert.Equal(t, "key-v2", got.MasterKeyID)
	})

	t.Run("envelopes survive reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.db")

		repo, err := NewBBoltEnvelopeRepository(path)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "tenant:acme", makeEnvelope(t)))
		require.NoError(t, repo.Close())

		reopened, err := NewBBoltEnvelopeRepository(path)
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, reopened.Close())
		}()

		got, err := reopened.Get(ctx, "tenant:acme")
		require.NoError(t, err)
		assert.Equal(t, "key-v1", got.MasterKeyID)
	})

	t.Run("delete removes envelope", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Save(ctx, "tenant:acme", makeEnvelope(t)))
		require.NoError(t, repo.Delete(ctx, "tenant:acme"))

		_, err := repo.Get(ctx, "tenant:acme")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("delete missing envelope is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.Delete(ctx, "tenant:missing"))
	})

	t.Run("delete all removes every envelope", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Save(ctx, "super_admin", makeEnvelope(t)))
		require.NoError(t, repo.Save(ctx, "tenant:acme", makeEnvelope(t)))

		require.NoError(t, repo.DeleteAll(ctx))

		for _, key := range []string{"super_admin", "tenant:acme"} {
			_, err := repo.Get(ctx, key)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
		}

		// Bucket is usable again after DeleteAll
		require.NoError(t, repo.Save(ctx, "tenant:acme", makeEnvelope(t)))
		_, err := repo.Get(ctx, "tenant:acme")
		assert.NoError(t, err)
	})
}
