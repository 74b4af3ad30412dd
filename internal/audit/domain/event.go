// Package domain defines the audit event model shared by all subsystems.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is one append-only audit record. All four subsystems (credential store,
// credential manager, conflict resolver, input sanitizer) emit these through the
// shared audit sink. Details carries triage metadata only, never raw secrets and
// never the full offending input.
type Event struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	Event        string
	ActorContext string
	SourceIP     string
	Details      map[string]any
	Signature    []byte
	CreatedAt    time.Time
}
