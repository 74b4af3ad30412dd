// Package domain defines credential contexts, records, and storage envelopes.
package domain

import (
	"fmt"
	"time"
)

// ContextKind identifies the flavor of an authenticated identity.
type ContextKind string

const (
	// KindSuperAdmin is the global administrative identity.
	KindSuperAdmin ContextKind = "super_admin"

	// KindTenantAdmin is a per-tenant administrative identity.
	KindTenantAdmin ContextKind = "tenant_admin"
)

// SuperAdminContextKey is the storage key of the global administrative context.
const SuperAdminContextKey = "super_admin"

// TenantContextKey derives the storage key of a tenant administrative context.
func TenantContextKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s", tenantID)
}

// Context is one authenticated identity registered with a credential manager.
// At most one context is active per manager instance at any instant.
type Context struct {
	Key       string
	Kind      ContextKind
	TenantID  string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the context's TTL has elapsed at the given instant.
func (c *Context) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// Transition outcomes recorded per context switch attempt.
const (
	// TransitionSuccess means the active context changed.
	TransitionSuccess = "success"

	// TransitionDenied means the rate limiter rejected the attempt.
	TransitionDenied = "denied"

	// TransitionRejected means the target was unknown or expired.
	TransitionRejected = "rejected"
)

// TransitionEvent records one context switch attempt. The rate limiter only
// counts successful transitions; denied and rejected attempts are audit-only.
type TransitionEvent struct {
	FromContext string
	ToContext   string
	Timestamp   time.Time
	Outcome     string
}
