package domain

import (
	"time"
)

// CredentialRecord is the plaintext form of one context's secret material.
// It only ever exists in memory: on disk it is always wrapped in a
// StorageEnvelope. Records are immutable except through rotation, which
// atomically replaces the stored envelope.
type CredentialRecord struct {
	// ContextKey binds the record to its credential context.
	ContextKey string `cbor:"context_key"`

	// SecretMaterial is the opaque credential payload (API keys, tokens).
	SecretMaterial map[string]string `cbor:"secret_material"`

	// Fingerprint is an Argon2id hash of the primary API key, used to verify a
	// presented key without decrypting or exposing the stored material.
	Fingerprint string `cbor:"fingerprint,omitempty"`

	// TenantID is set for tenant-admin records, empty for the super admin.
	TenantID string `cbor:"tenant_id,omitempty"`

	// IssuedAt is when this record (or its current rotation) was created.
	IssuedAt time.Time `cbor:"issued_at"`

	// ExpiresAt is the optional record expiry, nil meaning no expiry.
	ExpiresAt *time.Time `cbor:"expires_at,omitempty"`
}

// APIKeyField is the required field name of the primary credential secret.
const APIKeyField = "api_key"

// APIKey returns the record's primary API key, empty if absent.
func (r *CredentialRecord) APIKey() string {
	return r.SecretMaterial[APIKeyField]
}
