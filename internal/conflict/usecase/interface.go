// Package usecase implements idempotent get-or-create resolution for remote
// resource provisioning.
package usecase

import (
	"context"

	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
)

// RemoteClient is the upstream provisioning API.
type RemoteClient interface {
	// Create provisions a resource. On a natural-key collision it returns a
	// *conflictDomain.ConflictError.
	Create(ctx context.Context, resource *conflictDomain.Resource) (*conflictDomain.Resource, error)

	// Lookup fetches an existing resource by natural key, ErrNotFound if absent.
	Lookup(ctx context.Context, naturalKey string) (*conflictDomain.Resource, error)
}

// Resolver turns create conflicts into idempotent get-or-create semantics.
type Resolver interface {
	// GetOrCreate creates the resource, and on a resolvable conflict recovers
	// the existing entity with exactly one lookup. Conflicts without a usable
	// natural key, and lookups that come back empty, return ErrUnresolvable.
	GetOrCreate(
		ctx context.Context,
		resource *conflictDomain.Resource,
	) (*conflictDomain.GetOrCreateResult, error)
}
