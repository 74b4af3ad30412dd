// Package dto defines request and response payloads for credential endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/credguard/internal/validation"
)

// RegisterSuperAdminRequest registers the global administrative context.
type RegisterSuperAdminRequest struct {
	SecretMaterial map[string]string `json:"secret_material"`
}

// Validate checks the request payload.
func (r *RegisterSuperAdminRequest) Validate() error {
	return validation.Validate(r.SecretMaterial, validation.Required)
}

// RegisterTenantRequest registers a tenant administrative context.
type RegisterTenantRequest struct {
	TenantID       string            `json:"tenant_id"`
	Role           string            `json:"role"`
	SecretMaterial map[string]string `json:"secret_material"`
}

// Validate checks the request payload.
func (r *RegisterTenantRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TenantID, validation.Required, customValidation.TenantID),
		validation.Field(&r.Role, validation.Required, customValidation.NotBlank),
		validation.Field(&r.SecretMaterial, validation.Required),
	)
}

// SwitchContextRequest activates a registered context.
type SwitchContextRequest struct {
	ContextKey string `json:"context_key"`
}

// Validate checks the request payload.
func (r *SwitchContextRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ContextKey, validation.Required, customValidation.NotBlank),
	)
}

// RotateRequest replaces a context's credentials.
type RotateRequest struct {
	ContextKey     string            `json:"context_key"`
	SecretMaterial map[string]string `json:"secret_material"`
}

// Validate checks the request payload.
func (r *RotateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ContextKey, validation.Required, customValidation.NotBlank),
		validation.Field(&r.SecretMaterial, validation.Required),
	)
}

// VerifyCredentialRequest checks an API key against a context's fingerprint.
type VerifyCredentialRequest struct {
	ContextKey string `json:"context_key"`
	APIKey     string `json:"api_key"`
}

// Validate checks the request payload.
func (r *VerifyCredentialRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ContextKey, validation.Required, customValidation.NotBlank),
		validation.Field(&r.APIKey, validation.Required),
	)
}
