// Package dto defines request and response payloads for resource provisioning.
package dto

import (
	validation "github.com/jellydator/validation"

	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
	customValidation "github.com/allisson/credguard/internal/validation"
)

// CreateResourceRequest provisions a remote resource idempotently.
type CreateResourceRequest struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// Validate checks the request payload.
func (r *CreateResourceRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
	)
}

// ToDomain maps the request to a domain resource.
func (r *CreateResourceRequest) ToDomain() *conflictDomain.Resource {
	return &conflictDomain.Resource{
		Name:       r.Name,
		Attributes: r.Attributes,
	}
}
