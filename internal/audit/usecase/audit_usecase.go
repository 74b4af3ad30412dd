package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	auditService "github.com/allisson/credguard/internal/audit/service"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// auditUseCase implements UseCase. Events are signed with a key derived from the
// active master key before persistence so the trail is tamper-evident.
type auditUseCase struct {
	eventRepo  EventRepository
	signer     auditService.Signer
	signingKey []byte
	logger     *slog.Logger
}

// NewUseCase creates the shared audit sink. signingKey may be nil, in which case
// events are persisted unsigned (test and development setups).
func NewUseCase(
	eventRepo EventRepository,
	signer auditService.Signer,
	signingKey []byte,
	logger *slog.Logger,
) UseCase {
	return &auditUseCase{
		eventRepo:  eventRepo,
		signer:     signer,
		signingKey: signingKey,
		logger:     logger,
	}
}

// Emit records one audit event with a UUIDv7 identifier and UTC timestamp.
func (a *auditUseCase) Emit(
	ctx context.Context,
	requestID uuid.UUID,
	event string,
	actorContext string,
	sourceIP string,
	details map[string]any,
) error {
	if actorContext == "" {
		actorContext = auditDomain.ActorNone
	}

	entry := &auditDomain.Event{
		ID:           uuid.Must(uuid.NewV7()),
		RequestID:    requestID,
		Event:        event,
		ActorContext: actorContext,
		SourceIP:     sourceIP,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}

	if a.signer != nil && a.signingKey != nil {
		signature, err := a.signer.Sign(a.signingKey, entry)
		if err != nil {
			return apperrors.Wrap(err, "failed to sign audit event")
		}
		entry.Signature = signature
	}

	if err := a.eventRepo.Create(ctx, entry); err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}

	a.logger.Info("audit event",
		slog.String("event", entry.Event),
		slog.String("actor_context", entry.ActorContext),
		slog.String("event_id", entry.ID.String()),
	)

	return nil
}

// List retrieves audit events ordered by created_at descending (newest first) with
// pagination and optional time-based filtering. Both boundaries are inclusive.
func (a *auditUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	events, err := a.eventRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}

	return events, nil
}

// Verify re-checks the signature of a stored event against the signing key.
func (a *auditUseCase) Verify(event *auditDomain.Event) error {
	if a.signer == nil || a.signingKey == nil {
		return nil
	}
	return a.signer.Verify(a.signingKey, event)
}
