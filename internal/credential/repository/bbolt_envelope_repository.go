package repository

import (
	"context"

	bolt "go.etcd.io/bbolt"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

var envelopeBucket = []byte("envelopes")

// BBoltEnvelopeRepository stores all envelopes in a single container file
// keyed by context key. bbolt gives us transactional writes, so a crash never
// leaves a half-written envelope.
type BBoltEnvelopeRepository struct {
	db *bolt.DB
}

// NewBBoltEnvelopeRepository opens (or creates) the container file and ensures
// the envelope bucket exists.
func NewBBoltEnvelopeRepository(path string) (*BBoltEnvelopeRepository, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open envelope container")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(envelopeBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(err, "failed to create envelope bucket")
	}

	return &BBoltEnvelopeRepository{db: db}, nil
}

// Save persists an envelope under its context key inside a write transaction.
func (b *BBoltEnvelopeRepository) Save(
	ctx context.Context,
	contextKey string,
	envelope *credentialDomain.StorageEnvelope,
) error {
	data, err := envelope.Encode()
	if err != nil {
		return err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(envelopeBucket).Put([]byte(contextKey), data)
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to save envelope")
	}

	return nil
}

// Get loads the envelope for a context key. Returns ErrNotFound when the key
// has no stored envelope.
func (b *BBoltEnvelopeRepository) Get(
	ctx context.Context,
	contextKey string,
) (*credentialDomain.StorageEnvelope, error) {
	var data []byte

	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(envelopeBucket).Get([]byte(contextKey))
		if value != nil {
			// Copy out: bbolt values are only valid inside the transaction
			data = make([]byte, len(value))
			copy(data, value)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read envelope")
	}

	if data == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "envelope not found")
	}

	return credentialDomain.DecodeEnvelope(data)
}

// Delete removes the envelope for a context key. Deleting a missing envelope
// is not an error.
func (b *BBoltEnvelopeRepository) Delete(ctx context.Context, contextKey string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(envelopeBucket).Delete([]byte(contextKey))
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to delete envelope")
	}
	return nil
}

// DeleteAll drops and recreates the envelope bucket.
func (b *BBoltEnvelopeRepository) DeleteAll(ctx context.Context) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(envelopeBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(envelopeBucket)
		return err
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to clear envelopes")
	}
	return nil
}

// Close closes the underlying container file.
func (b *BBoltEnvelopeRepository) Close() error {
	return b.db.Close()
}
