package domain

import (
	"github.com/allisson/credguard/internal/errors"
)

// Credential subsystem errors.
var (
	// ErrUnsupportedAlgorithm indicates the requested cipher is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a master key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrEncryption, "invalid master key size")

	// ErrContextNotFound indicates the target context is not registered.
	ErrContextNotFound = errors.Wrap(errors.ErrNotFound, "context not found")

	// ErrNoActiveContext indicates no context is currently active.
	ErrNoActiveContext = errors.Wrap(errors.ErrNotFound, "no active context")

	// ErrContextExpired indicates the target context's TTL has elapsed.
	ErrContextExpired = errors.Wrap(errors.ErrInvalidInput, "context expired")

	// ErrInvalidCredentialFormat indicates the credential material is malformed.
	ErrInvalidCredentialFormat = errors.Wrap(errors.ErrInvalidInput, "invalid credential format")

	// Master key loading errors.
	ErrMasterKeysNotSet        = errors.Wrap(errors.ErrEncryption, "MASTER_KEYS not set")
	ErrActiveMasterKeyIDNotSet = errors.Wrap(errors.ErrEncryption, "ACTIVE_MASTER_KEY_ID not set")
	ErrInvalidMasterKeysFormat = errors.Wrap(errors.ErrEncryption, "invalid MASTER_KEYS format")
	ErrInvalidMasterKeyBase64  = errors.Wrap(errors.ErrEncryption, "invalid master key base64")
	ErrActiveMasterKeyNotFound = errors.Wrap(errors.ErrEncryption, "active master key not found")
)
