// Package domain defines remote resources and conflict classification for
// idempotent get-or-create flows against upstream provisioning APIs.
package domain

import (
	"time"
)

// Resource is an entity provisioned on a remote system. Name is the natural
// key: the remote enforces its uniqueness and reports collisions as conflicts.
type Resource struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// GetOrCreateResult reports the outcome of an idempotent create: the resource
// that now exists remotely, and whether it existed before the call.
type GetOrCreateResult struct {
	Resource *Resource
	Existed  bool
}
