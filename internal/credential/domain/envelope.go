package domain

import (
	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/allisson/credguard/internal/errors"
)

// EnvelopeVersion is the current on-disk envelope format version.
const EnvelopeVersion = 1

// AuthTagSize is the AEAD authentication tag length in bytes (both supported
// algorithms use a 16-byte tag).
const AuthTagSize = 16

// StorageEnvelope is the only form a CredentialRecord takes at rest. The
// envelope is self-describing: version, algorithm, and master key ID travel
// with the ciphertext so records survive algorithm and key rotation.
type StorageEnvelope struct {
	Version     uint8     `cbor:"version"`
	Algorithm   Algorithm `cbor:"algorithm"`
	MasterKeyID string    `cbor:"master_key_id"`
	Nonce       []byte    `cbor:"nonce"`
	Ciphertext  []byte    `cbor:"ciphertext"`
	AuthTag     []byte    `cbor:"auth_tag"`
}

// Encode serializes the envelope with CBOR.
func (e *StorageEnvelope) Encode() ([]byte, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode storage envelope")
	}
	return data, nil
}

// DecodeEnvelope deserializes and validates an envelope from its CBOR form.
// A malformed or future-versioned envelope is an integrity failure: either the
// file was corrupted or it was written by an incompatible version.
func DecodeEnvelope(data []byte) (*StorageEnvelope, error) {
	var envelope StorageEnvelope
	if err := cbor.Unmarshal(data, &envelope); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "malformed storage envelope")
	}

	if envelope.Version != EnvelopeVersion {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "unsupported envelope version")
	}
	if len(envelope.Nonce) == 0 || len(envelope.Ciphertext) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "incomplete storage envelope")
	}
	if len(envelope.AuthTag) != AuthTagSize {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "invalid authentication tag size")
	}

	return &envelope, nil
}
