package usecase

import (
	"context"
	"log/slog"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// resolverUseCase implements Resolver over a RemoteClient.
type resolverUseCase struct {
	client RemoteClient
	audit  auditUsecase.UseCase
	logger *slog.Logger
}

// NewResolver returns a Resolver backed by the given remote client.
func NewResolver(client RemoteClient, audit auditUsecase.UseCase, logger *slog.Logger) Resolver {
	return &resolverUseCase{
		client: client,
		audit:  audit,
		logger: logger,
	}
}

// GetOrCreate creates the resource and resolves natural-key conflicts by
// recovering the existing entity.
//
// The lookup runs at most once per call: classification is decided purely from
// the create error before any further I/O, and an empty or failed lookup is
// terminal rather than retried.
func (r *resolverUseCase) GetOrCreate(
	ctx context.Context,
	resource *conflictDomain.Resource,
) (*conflictDomain.GetOrCreateResult, error) {
	created, err := r.client.Create(ctx, resource)
	if err == nil {
		return &conflictDomain.GetOrCreateResult{Resource: created, Existed: false}, nil
	}

	outcome := conflictDomain.ClassifyConflict(err)
	switch outcome.Kind {
	case conflictDomain.OutcomeNone:
		// Not a conflict: transport errors and the like propagate unchanged.
		return nil, err

	case conflictDomain.OutcomeUnresolvable:
		r.emit(ctx, resource.Name, "unresolvable", map[string]any{
			"reason": "conflict_without_natural_key",
		})
		return nil, apperrors.Wrap(apperrors.ErrUnresolvable, err.Error())

	case conflictDomain.OutcomeResolvable:
		existing, lookupErr := r.client.Lookup(ctx, outcome.NaturalKey)
		if lookupErr != nil {
			// The remote reported a collision but the entity is gone or the
			// lookup failed. Retrying here could double the lookup, so the
			// caller decides what to do next.
			r.emit(ctx, resource.Name, "unresolvable", map[string]any{
				"reason":      "lookup_failed",
				"natural_key": outcome.NaturalKey,
			})
			return nil, apperrors.Wrap(apperrors.ErrUnresolvable, lookupErr.Error())
		}

		r.emit(ctx, resource.Name, "auto_resolved", map[string]any{
			"natural_key": outcome.NaturalKey,
			"existing_id": existing.ID,
		})

		r.logger.InfoContext(ctx, "conflict auto-resolved",
			slog.String("natural_key", outcome.NaturalKey),
			slog.String("existing_id", existing.ID),
		)

		return &conflictDomain.GetOrCreateResult{Resource: existing, Existed: true}, nil

	default:
		return nil, err
	}
}

func (r *resolverUseCase) emit(ctx context.Context, name, resolution string, details map[string]any) {
	if r.audit == nil {
		return
	}
	if details == nil {
		details = make(map[string]any)
	}
	details["resource_name"] = name
	details["resolution"] = resolution

	requestID := auditDomain.RequestIDFromContext(ctx)
	if err := r.audit.Emit(
		ctx, requestID, auditDomain.EventConflictResolution, auditDomain.ActorNone, "", details,
	); err != nil {
		r.logger.WarnContext(ctx, "failed to emit audit event", slog.Any("error", err))
	}
}
