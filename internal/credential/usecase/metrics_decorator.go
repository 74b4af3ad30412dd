package usecase

import (
	"context"
	"time"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
	"github.com/allisson/credguard/internal/metrics"
)

// managerWithMetrics decorates Manager with metrics instrumentation.
type managerWithMetrics struct {
	next    Manager
	metrics metrics.BusinessMetrics
}

// NewManagerWithMetrics wraps a Manager with metrics recording.
func NewManagerWithMetrics(manager Manager, m metrics.BusinessMetrics) Manager {
	return &managerWithMetrics{
		next:    manager,
		metrics: m,
	}
}

func switchStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, apperrors.ErrRateLimited):
		return "denied"
	default:
		return "error"
	}
}

// AddSuperAdminContext records metrics for super admin registration.
func (d *managerWithMetrics) AddSuperAdminContext(
	ctx context.Context,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	start := time.Now()
	result, err := d.next.AddSuperAdminContext(ctx, secretMaterial)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "register_context", status)
	d.metrics.RecordDuration(ctx, "credential", "register_context", time.Since(start), status)

	return result, err
}

// AddTenantContext records metrics for tenant registration.
func (d *managerWithMetrics) AddTenantContext(
	ctx context.Context,
	tenantID string,
	role string,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	start := time.Now()
	result, err := d.next.AddTenantContext(ctx, tenantID, role, secretMaterial)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "register_context", status)
	d.metrics.RecordDuration(ctx, "credential", "register_context", time.Since(start), status)

	return result, err
}

// SwitchContext records metrics for context switch attempts, distinguishing
// rate-limit denials from other failures.
func (d *managerWithMetrics) SwitchContext(ctx context.Context, contextKey string) error {
	start := time.Now()
	err := d.next.SwitchContext(ctx, contextKey)

	status := switchStatus(err)
	d.metrics.RecordOperation(ctx, "credential", "switch_context", status)
	d.metrics.RecordDuration(ctx, "credential", "switch_context", time.Since(start), status)

	return err
}

// ClearActiveContext passes through without metrics.
func (d *managerWithMetrics) ClearActiveContext(ctx context.Context) error {
	return d.next.ClearActiveContext(ctx)
}

// ActiveContext passes through without metrics.
func (d *managerWithMetrics) ActiveContext(ctx context.Context) (*credentialDomain.Context, error) {
	return d.next.ActiveContext(ctx)
}

// GetActiveCredentials records metrics for credential retrieval.
func (d *managerWithMetrics) GetActiveCredentials(
	ctx context.Context,
) (*credentialDomain.CredentialRecord, error) {
	start := time.Now()
	result, err := d.next.GetActiveCredentials(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "get_active_credentials", status)
	d.metrics.RecordDuration(ctx, "credential", "get_active_credentials", time.Since(start), status)

	return result, err
}

// IsSuperAdminMode passes through without metrics.
func (d *managerWithMetrics) IsSuperAdminMode(ctx context.Context) bool {
	return d.next.IsSuperAdminMode(ctx)
}

// IsTenantMode passes through without metrics.
func (d *managerWithMetrics) IsTenantMode(ctx context.Context, tenantID string) bool {
	return d.next.IsTenantMode(ctx, tenantID)
}

// ListContexts passes through without metrics.
func (d *managerWithMetrics) ListContexts(ctx context.Context) []*credentialDomain.Context {
	return d.next.ListContexts(ctx)
}

// Rotate records metrics for credential rotation.
func (d *managerWithMetrics) Rotate(
	ctx context.Context,
	contextKey string,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	start := time.Now()
	result, err := d.next.Rotate(ctx, contextKey, secretMaterial)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "rotate", status)
	d.metrics.RecordDuration(ctx, "credential", "rotate", time.Since(start), status)

	return result, err
}

// ExpireSweep records metrics for expiry sweeps.
func (d *managerWithMetrics) ExpireSweep(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := d.next.ExpireSweep(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "expire_sweep", status)
	d.metrics.RecordDuration(ctx, "credential", "expire_sweep", time.Since(start), status)

	return count, err
}

// VerifyCredential records metrics for credential verification.
func (d *managerWithMetrics) VerifyCredential(
	ctx context.Context,
	contextKey string,
	apiKey string,
) (bool, error) {
	start := time.Now()
	ok, err := d.next.VerifyCredential(ctx, contextKey, apiKey)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "verify_credential", status)
	d.metrics.RecordDuration(ctx, "credential", "verify_credential", time.Since(start), status)

	return ok, err
}

// TransitionHistory passes through without metrics.
func (d *managerWithMetrics) TransitionHistory(ctx context.Context) []credentialDomain.TransitionEvent {
	return d.next.TransitionHistory(ctx)
}

// storeWithMetrics decorates Store with metrics instrumentation.
type storeWithMetrics struct {
	next    Store
	metrics metrics.BusinessMetrics
}

// NewStoreWithMetrics wraps a Store with metrics recording.
func NewStoreWithMetrics(store Store, m metrics.BusinessMetrics) Store {
	return &storeWithMetrics{
		next:    store,
		metrics: m,
	}
}

// Store records metrics for sealing operations.
func (d *storeWithMetrics) Store(ctx context.Context, record *credentialDomain.CredentialRecord) error {
	start := time.Now()
	err := d.next.Store(ctx, record)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "store", status)
	d.metrics.RecordDuration(ctx, "credential", "store", time.Since(start), status)

	return err
}

// Retrieve records metrics for opening operations.
func (d *storeWithMetrics) Retrieve(
	ctx context.Context,
	contextKey string,
) (*credentialDomain.CredentialRecord, error) {
	start := time.Now()
	record, err := d.next.Retrieve(ctx, contextKey)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "retrieve", status)
	d.metrics.RecordDuration(ctx, "credential", "retrieve", time.Since(start), status)

	return record, err
}

// Delete passes through without metrics.
func (d *storeWithMetrics) Delete(ctx context.Context, contextKey string) error {
	return d.next.Delete(ctx, contextKey)
}

// Clear records metrics for clear operations.
func (d *storeWithMetrics) Clear(ctx context.Context) error {
	start := time.Now()
	err := d.next.Clear(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "clear", status)
	d.metrics.RecordDuration(ctx, "credential", "clear", time.Since(start), status)

	return err
}

// HealthCheck records metrics for health probes.
func (d *storeWithMetrics) HealthCheck(ctx context.Context) bool {
	start := time.Now()
	healthy := d.next.HealthCheck(ctx)

	status := "success"
	if !healthy {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "credential", "health_check", status)
	d.metrics.RecordDuration(ctx, "credential", "health_check", time.Since(start), status)

	return healthy
}
