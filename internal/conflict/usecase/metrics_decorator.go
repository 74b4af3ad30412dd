package usecase

import (
	"context"
	"time"

	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
	"github.com/allisson/credguard/internal/metrics"
)

// resolverWithMetrics decorates Resolver with metrics instrumentation.
type resolverWithMetrics struct {
	next    Resolver
	metrics metrics.BusinessMetrics
}

// NewResolverWithMetrics wraps a Resolver with metrics recording.
func NewResolverWithMetrics(resolver Resolver, m metrics.BusinessMetrics) Resolver {
	return &resolverWithMetrics{
		next:    resolver,
		metrics: m,
	}
}

// GetOrCreate records metrics for get-or-create operations, distinguishing
// unresolvable conflicts from other failures.
func (d *resolverWithMetrics) GetOrCreate(
	ctx context.Context,
	resource *conflictDomain.Resource,
) (*conflictDomain.GetOrCreateResult, error) {
	start := time.Now()
	result, err := d.next.GetOrCreate(ctx, resource)

	var status string
	switch {
	case err == nil && result.Existed:
		status = "auto_resolved"
	case err == nil:
		status = "created"
	case apperrors.Is(err, apperrors.ErrUnresolvable):
		status = "unresolvable"
	default:
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "conflict", "get_or_create", status)
	d.metrics.RecordDuration(ctx, "conflict", "get_or_create", time.Since(start), status)

	return result, err
}
