// Package dto defines response payloads for audit endpoints.
package dto

import (
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

// EventResponse is one audit event as returned by the list endpoint. The
// signature is exposed as a presence flag only.
type EventResponse struct {
	ID           uuid.UUID      `json:"id"`
	RequestID    uuid.UUID      `json:"request_id"`
	Event        string         `json:"event"`
	ActorContext string         `json:"actor_context"`
	SourceIP     string         `json:"source_ip,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Signed       bool           `json:"signed"`
	CreatedAt    time.Time      `json:"created_at"`
}

// MapEventToResponse maps a domain event to its response payload.
func MapEventToResponse(e *auditDomain.Event) EventResponse {
	return EventResponse{
		ID:           e.ID,
		RequestID:    e.RequestID,
		Event:        e.Event,
		ActorContext: e.ActorContext,
		SourceIP:     e.SourceIP,
		Details:      e.Details,
		Signed:       len(e.Signature) > 0,
		CreatedAt:    e.CreatedAt,
	}
}

// MapEventsToResponse maps a list of domain events.
func MapEventsToResponse(events []*auditDomain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, MapEventToResponse(e))
	}
	return out
}
