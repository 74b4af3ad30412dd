// Package usecase implements business logic orchestration for audit operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

// EventRepository defines the persistence contract for audit events.
// Implementations must be append-only: events are never updated or deleted.
type EventRepository interface {
	// Create appends a new audit event.
	Create(ctx context.Context, event *auditDomain.Event) error

	// List retrieves audit events ordered newest first with pagination and
	// optional inclusive time-range filtering (nil means no bound).
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.Event, error)
}

// UseCase is the shared audit sink consumed by all subsystems.
type UseCase interface {
	// Emit records one audit event. requestID may be uuid.Nil for operations
	// outside a request scope (CLI commands, sweeps).
	Emit(
		ctx context.Context,
		requestID uuid.UUID,
		event string,
		actorContext string,
		sourceIP string,
		details map[string]any,
	) error

	// List retrieves audit events for review.
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.Event, error)

	// Verify re-checks the signature of a stored event.
	Verify(event *auditDomain.Event) error
}
