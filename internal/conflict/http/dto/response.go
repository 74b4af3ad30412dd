package dto

import (
	"time"

	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
)

// ResourceResponse describes a provisioned resource.
type ResourceResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Existed    bool              `json:"existed"`
}

// MapResultToResponse maps a get-or-create outcome to its response payload.
func MapResultToResponse(result *conflictDomain.GetOrCreateResult) ResourceResponse {
	return ResourceResponse{
		ID:         result.Resource.ID,
		Name:       result.Resource.Name,
		Attributes: result.Resource.Attributes,
		CreatedAt:  result.Resource.CreatedAt,
		Existed:    result.Existed,
	}
}
