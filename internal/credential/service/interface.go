// Package service provides cryptographic services for credential storage.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) for envelope sealing.
package service

import (
	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	// The authentication tag is appended to the ciphertext.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg credentialDomain.Algorithm) (AEAD, error)
}

// FingerprintService hashes and verifies API keys without storing them in clear.
type FingerprintService interface {
	// Hash produces an Argon2id hash of the given API key.
	Hash(apiKey string) (string, error)

	// Verify performs a constant-time comparison of a presented key against a hash.
	Verify(apiKey string, fingerprint string) bool
}
