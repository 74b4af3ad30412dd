package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/credguard/internal/errors"
)

// fingerprintService implements FingerprintService using Argon2id hashing.
type fingerprintService struct {
	hasher *pwdhash.PasswordHasher
}

// Hash produces an Argon2id hash of the given API key. The hash is stored
// inside the credential record so a presented key can be verified without
// decrypting or exposing the stored material.
func (f *fingerprintService) Hash(apiKey string) (string, error) {
	fingerprint, err := f.hasher.Hash([]byte(apiKey))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash api key")
	}
	return fingerprint, nil
}

// Verify performs a constant-time comparison of a presented key against a hash.
func (f *fingerprintService) Verify(apiKey string, fingerprint string) bool {
	ok, err := f.hasher.Verify([]byte(apiKey), fingerprint)
	if err != nil {
		return false
	}
	return ok
}

// NewFingerprintService creates a FingerprintService using Argon2id hashing.
// Uses the Moderate policy for a balance between security and performance.
func NewFingerprintService() FingerprintService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &fingerprintService{
		hasher: hasher,
	}
}
