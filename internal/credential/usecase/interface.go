// Package usecase implements business logic orchestration for credential
// storage and context management.
package usecase

import (
	"context"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
)

// EnvelopeRepository defines the persistence contract for sealed envelopes.
// Implementations never see plaintext: they store and return opaque envelopes.
type EnvelopeRepository interface {
	// Save persists an envelope under a context key, replacing any existing one.
	// The write must be atomic: readers observe the old or the new envelope,
	// never a partial one.
	Save(ctx context.Context, contextKey string, envelope *credentialDomain.StorageEnvelope) error

	// Get loads the envelope for a context key, ErrNotFound if absent.
	Get(ctx context.Context, contextKey string) (*credentialDomain.StorageEnvelope, error)

	// Delete removes the envelope for a context key. Missing is not an error.
	Delete(ctx context.Context, contextKey string) error

	// DeleteAll removes every stored envelope.
	DeleteAll(ctx context.Context) error
}

// Store seals credential records into storage envelopes and opens them again.
// Plaintext records exist only in memory on either side of this boundary.
type Store interface {
	// Store seals a record with the active master key and persists it under the
	// record's context key.
	Store(ctx context.Context, record *credentialDomain.CredentialRecord) error

	// Retrieve opens the envelope for a context key and returns the record.
	// Returns ErrNotFound when no envelope exists and ErrIntegrity when the
	// envelope fails authentication (tampering or wrong key).
	Retrieve(ctx context.Context, contextKey string) (*credentialDomain.CredentialRecord, error)

	// Delete removes the stored envelope for a context key.
	Delete(ctx context.Context, contextKey string) error

	// Clear removes all stored envelopes.
	Clear(ctx context.Context) error

	// HealthCheck round-trips a synthetic record through seal, persist, open,
	// and compare. Reports false on any failure, it never returns an error.
	HealthCheck(ctx context.Context) bool
}

// Manager is the authoritative registry of credential contexts and the
// single-active-context state machine.
type Manager interface {
	// AddSuperAdminContext registers the global administrative context with
	// validated credentials, sealing them through the store. Re-registering
	// replaces the stored credentials.
	AddSuperAdminContext(
		ctx context.Context,
		secretMaterial map[string]string,
	) (*credentialDomain.Context, error)

	// AddTenantContext registers a tenant administrative context.
	AddTenantContext(
		ctx context.Context,
		tenantID string,
		role string,
		secretMaterial map[string]string,
	) (*credentialDomain.Context, error)

	// SwitchContext makes the target context active. Unknown targets return
	// ErrContextNotFound, expired targets ErrContextExpired, and attempts over
	// the sliding-window budget ErrRateLimited. Only successful transitions
	// consume rate-limit budget; switching to the already active context
	// counts as one.
	SwitchContext(ctx context.Context, contextKey string) error

	// ClearActiveContext deactivates the current context without activating
	// another. Not rate limited.
	ClearActiveContext(ctx context.Context) error

	// ActiveContext returns the currently active context, ErrNoActiveContext
	// if none is active or the active context has expired.
	ActiveContext(ctx context.Context) (*credentialDomain.Context, error)

	// GetActiveCredentials opens and returns the active context's record.
	GetActiveCredentials(ctx context.Context) (*credentialDomain.CredentialRecord, error)

	// IsSuperAdminMode reports whether the super admin context is active.
	IsSuperAdminMode(ctx context.Context) bool

	// IsTenantMode reports whether a tenant context is active. A non-empty
	// tenantID narrows the check to that specific tenant.
	IsTenantMode(ctx context.Context, tenantID string) bool

	// ListContexts returns all registered contexts, expired ones included.
	ListContexts(ctx context.Context) []*credentialDomain.Context

	// Rotate replaces a context's credentials with new validated material.
	// The context keeps its identity and expiry; only the sealed record and
	// fingerprint change.
	Rotate(
		ctx context.Context,
		contextKey string,
		secretMaterial map[string]string,
	) (*credentialDomain.Context, error)

	// ExpireSweep removes expired contexts and their envelopes, deactivating
	// the active context if it expired. Returns the number removed.
	ExpireSweep(ctx context.Context) (int, error)

	// VerifyCredential checks a presented API key against the context's stored
	// fingerprint without decrypting the envelope.
	VerifyCredential(ctx context.Context, contextKey string, apiKey string) (bool, error)

	// TransitionHistory returns recent context switch attempts, oldest first.
	TransitionHistory(ctx context.Context) []credentialDomain.TransitionEvent
}
