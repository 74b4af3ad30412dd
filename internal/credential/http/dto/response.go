package dto

import (
	"time"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
)

// ContextResponse describes a registered context. It never carries secret
// material or fingerprints.
type ContextResponse struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MapContextToResponse maps a domain context to its response payload.
func MapContextToResponse(c *credentialDomain.Context) ContextResponse {
	return ContextResponse{
		Key:       c.Key,
		Kind:      string(c.Kind),
		TenantID:  c.TenantID,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

// MapContextsToResponse maps a list of domain contexts.
func MapContextsToResponse(contexts []*credentialDomain.Context) []ContextResponse {
	out := make([]ContextResponse, 0, len(contexts))
	for _, c := range contexts {
		out = append(out, MapContextToResponse(c))
	}
	return out
}

// CredentialsResponse carries the active context's secret material. Returned
// only by the explicit credentials endpoint.
type CredentialsResponse struct {
	ContextKey     string            `json:"context_key"`
	SecretMaterial map[string]string `json:"secret_material"`
	TenantID       string            `json:"tenant_id,omitempty"`
	IssuedAt       time.Time         `json:"issued_at"`
}

// MapRecordToResponse maps a credential record to its response payload.
func MapRecordToResponse(r *credentialDomain.CredentialRecord) CredentialsResponse {
	return CredentialsResponse{
		ContextKey:     r.ContextKey,
		SecretMaterial: r.SecretMaterial,
		TenantID:       r.TenantID,
		IssuedAt:       r.IssuedAt,
	}
}

// ModeResponse reports which kind of context is active.
type ModeResponse struct {
	ActiveContext string `json:"active_context,omitempty"`
	SuperAdmin    bool   `json:"super_admin"`
	Tenant        bool   `json:"tenant"`
}

// VerifyCredentialResponse reports a fingerprint check result.
type VerifyCredentialResponse struct {
	Valid bool `json:"valid"`
}

// SweepResponse reports how many contexts an expiry sweep removed.
type SweepResponse struct {
	Removed int `json:"removed"`
}

// TransitionResponse is one context switch attempt.
type TransitionResponse struct {
	FromContext string    `json:"from_context,omitempty"`
	ToContext   string    `json:"to_context,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Outcome     string    `json:"outcome"`
}

// MapTransitionsToResponse maps switch history to response payloads.
func MapTransitionsToResponse(
	events []credentialDomain.TransitionEvent,
) []TransitionResponse {
	out := make([]TransitionResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TransitionResponse{
			FromContext: e.FromContext,
			ToContext:   e.ToContext,
			Timestamp:   e.Timestamp,
			Outcome:     e.Outcome,
		})
	}
	return out
}
