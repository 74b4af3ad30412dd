package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	credentialService "github.com/allisson/credguard/internal/credential/service"
	apperrors "github.com/allisson/credguard/internal/errors"
	appvalidation "github.com/allisson/credguard/internal/validation"
)

// transitionHistoryLimit bounds the in-memory switch history.
const transitionHistoryLimit = 256

// ManagerConfig carries the tunables of the context state machine.
type ManagerConfig struct {
	// RateLimitWindow is the sliding window over successful switches.
	RateLimitWindow time.Duration

	// MaxTransitionsPerWindow is the switch budget inside one window.
	MaxTransitionsPerWindow int

	// ContextTTL is the lifetime of a registered context.
	ContextTTL time.Duration
}

// managerUseCase is the authoritative context registry. All state lives behind
// one mutex: the registry map, the active key, the rate-limit window, and the
// transition history always change together.
type managerUseCase struct {
	mu          sync.Mutex
	contexts    map[string]*credentialDomain.Context
	fingerprint map[string]string
	active      string
	window      []time.Time
	history     []credentialDomain.TransitionEvent

	store        Store
	fingerprints credentialService.FingerprintService
	audit        auditUsecase.UseCase
	config       ManagerConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewManager returns a Manager with an empty registry and no active context.
func NewManager(
	store Store,
	fingerprints credentialService.FingerprintService,
	audit auditUsecase.UseCase,
	config ManagerConfig,
	logger *slog.Logger,
) Manager {
	return &managerUseCase{
		contexts:     make(map[string]*credentialDomain.Context),
		fingerprint:  make(map[string]string),
		store:        store,
		fingerprints: fingerprints,
		audit:        audit,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

func (m *managerUseCase) validateSecretMaterial(secretMaterial map[string]string) error {
	apiKey, ok := secretMaterial[credentialDomain.APIKeyField]
	if !ok {
		return apperrors.Wrap(credentialDomain.ErrInvalidCredentialFormat, "missing api_key field")
	}
	if err := validation.Validate(apiKey, appvalidation.APIKey); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	return nil
}

func (m *managerUseCase) registerContext(
	ctx context.Context,
	key string,
	kind credentialDomain.ContextKind,
	tenantID string,
	role string,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	if err := m.validateSecretMaterial(secretMaterial); err != nil {
		return nil, err
	}

	fingerprint, err := m.fingerprints.Hash(secretMaterial[credentialDomain.APIKeyField])
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	record := &credentialDomain.CredentialRecord{
		ContextKey:     key,
		SecretMaterial: secretMaterial,
		Fingerprint:    fingerprint,
		TenantID:       tenantID,
		IssuedAt:       now,
	}

	if err := m.store.Store(ctx, record); err != nil {
		return nil, err
	}

	credentialContext := &credentialDomain.Context{
		Key:       key,
		Kind:      kind,
		TenantID:  tenantID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.ContextTTL),
	}

	m.mu.Lock()
	m.contexts[key] = credentialContext
	m.fingerprint[key] = fingerprint
	m.mu.Unlock()

	m.emit(ctx, auditDomain.EventContextRegistered, key, map[string]any{
		"kind":      string(kind),
		"tenant_id": tenantID,
	})

	return credentialContext, nil
}

// AddSuperAdminContext registers the global administrative context.
func (m *managerUseCase) AddSuperAdminContext(
	ctx context.Context,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	return m.registerContext(
		ctx,
		credentialDomain.SuperAdminContextKey,
		credentialDomain.KindSuperAdmin,
		"",
		"super_admin",
		secretMaterial,
	)
}

// AddTenantContext registers a tenant administrative context.
func (m *managerUseCase) AddTenantContext(
	ctx context.Context,
	tenantID string,
	role string,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	if err := validation.Validate(tenantID, validation.Required, appvalidation.TenantID); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}
	if err := validation.Validate(role, validation.Required, appvalidation.NotBlank); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	return m.registerContext(
		ctx,
		credentialDomain.TenantContextKey(tenantID),
		credentialDomain.KindTenantAdmin,
		tenantID,
		role,
		secretMaterial,
	)
}

// SwitchContext makes the target context active.
//
// Attempt ordering: existence, then expiry, then the rate limit. A rejected
// target therefore never consumes budget, and only successful transitions do.
// Re-activating the already active context is a transition like any other:
// it is recorded and consumes budget.
func (m *managerUseCase) SwitchContext(ctx context.Context, contextKey string) error {
	m.mu.Lock()

	now := m.now()
	from := m.active

	target, ok := m.contexts[contextKey]
	if !ok {
		m.recordTransition(from, contextKey, now, credentialDomain.TransitionRejected)
		m.mu.Unlock()
		m.emit(ctx, auditDomain.EventContextSwitchDenied, from, map[string]any{
			"target": contextKey,
			"reason": "context_not_found",
		})
		return credentialDomain.ErrContextNotFound
	}

	if target.Expired(now) {
		m.recordTransition(from, contextKey, now, credentialDomain.TransitionRejected)
		m.mu.Unlock()
		m.emit(ctx, auditDomain.EventContextSwitchDenied, from, map[string]any{
			"target": contextKey,
			"reason": "context_expired",
		})
		return credentialDomain.ErrContextExpired
	}

	m.pruneWindow(now)
	if len(m.window) >= m.config.MaxTransitionsPerWindow {
		m.recordTransition(from, contextKey, now, credentialDomain.TransitionDenied)
		m.mu.Unlock()
		m.emit(ctx, auditDomain.EventContextSwitchDenied, from, map[string]any{
			"target": contextKey,
			"reason": "rate_limited",
		})
		return apperrors.Wrap(apperrors.ErrRateLimited, "context switch budget exhausted")
	}

	m.window = append(m.window, now)
	m.active = contextKey
	m.recordTransition(from, contextKey, now, credentialDomain.TransitionSuccess)
	m.mu.Unlock()

	m.emit(ctx, auditDomain.EventContextSwitch, contextKey, map[string]any{
		"from": from,
	})

	m.logger.InfoContext(ctx, "context switched",
		slog.String("from", from),
		slog.String("to", contextKey),
	)

	return nil
}

// ClearActiveContext deactivates the current context.
func (m *managerUseCase) ClearActiveContext(ctx context.Context) error {
	m.mu.Lock()
	from := m.active
	m.active = ""
	if from != "" {
		m.recordTransition(from, "", m.now(), credentialDomain.TransitionSuccess)
	}
	m.mu.Unlock()

	if from != "" {
		m.emit(ctx, auditDomain.EventContextSwitch, auditDomain.ActorNone, map[string]any{
			"from": from,
		})
	}

	return nil
}

// ActiveContext returns the currently active context.
func (m *managerUseCase) ActiveContext(ctx context.Context) (*credentialDomain.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == "" {
		return nil, credentialDomain.ErrNoActiveContext
	}

	active, ok := m.contexts[m.active]
	if !ok {
		m.active = ""
		return nil, credentialDomain.ErrNoActiveContext
	}

	if active.Expired(m.now()) {
		m.active = ""
		return nil, credentialDomain.ErrContextExpired
	}

	return active, nil
}

// GetActiveCredentials opens and returns the active context's record.
func (m *managerUseCase) GetActiveCredentials(
	ctx context.Context,
) (*credentialDomain.CredentialRecord, error) {
	active, err := m.ActiveContext(ctx)
	if err != nil {
		return nil, err
	}

	return m.store.Retrieve(ctx, active.Key)
}

// IsSuperAdminMode reports whether the super admin context is active.
func (m *managerUseCase) IsSuperAdminMode(ctx context.Context) bool {
	active, err := m.ActiveContext(ctx)
	return err == nil && active.Kind == credentialDomain.KindSuperAdmin
}

// IsTenantMode reports whether a tenant context is active. A non-empty
// tenantID narrows the check to that specific tenant.
func (m *managerUseCase) IsTenantMode(ctx context.Context, tenantID string) bool {
	active, err := m.ActiveContext(ctx)
	if err != nil || active.Kind != credentialDomain.KindTenantAdmin {
		return false
	}
	return tenantID == "" || active.TenantID == tenantID
}

// ListContexts returns all registered contexts, expired ones included.
func (m *managerUseCase) ListContexts(ctx context.Context) []*credentialDomain.Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	contexts := make([]*credentialDomain.Context, 0, len(m.contexts))
	for _, c := range m.contexts {
		contexts = append(contexts, c)
	}
	return contexts
}

// Rotate replaces a context's credentials with new validated material.
func (m *managerUseCase) Rotate(
	ctx context.Context,
	contextKey string,
	secretMaterial map[string]string,
) (*credentialDomain.Context, error) {
	m.mu.Lock()
	target, ok := m.contexts[contextKey]
	m.mu.Unlock()
	if !ok {
		return nil, credentialDomain.ErrContextNotFound
	}

	if err := m.validateSecretMaterial(secretMaterial); err != nil {
		return nil, err
	}

	fingerprint, err := m.fingerprints.Hash(secretMaterial[credentialDomain.APIKeyField])
	if err != nil {
		return nil, err
	}

	record := &credentialDomain.CredentialRecord{
		ContextKey:     contextKey,
		SecretMaterial: secretMaterial,
		Fingerprint:    fingerprint,
		TenantID:       target.TenantID,
		IssuedAt:       m.now().UTC(),
	}

	if err := m.store.Store(ctx, record); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.fingerprint[contextKey] = fingerprint
	m.mu.Unlock()

	m.emit(ctx, auditDomain.EventCredentialRotated, contextKey, map[string]any{
		"tenant_id": target.TenantID,
	})

	m.logger.InfoContext(ctx, "credentials rotated", slog.String("context_key", contextKey))

	return target, nil
}

// ExpireSweep removes expired contexts and their envelopes.
func (m *managerUseCase) ExpireSweep(ctx context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	expired := make([]string, 0)
	for key, c := range m.contexts {
		if c.Expired(now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(m.contexts, key)
		delete(m.fingerprint, key)
		if m.active == key {
			m.active = ""
		}
	}
	m.mu.Unlock()

	for _, key := range expired {
		if err := m.store.Delete(ctx, key); err != nil {
			return 0, apperrors.Wrap(err, "failed to remove expired envelope")
		}
		m.emit(ctx, auditDomain.EventContextExpired, key, nil)
	}

	if len(expired) > 0 {
		m.logger.InfoContext(ctx, "expired contexts swept", slog.Int("count", len(expired)))
	}

	return len(expired), nil
}

// VerifyCredential checks a presented API key against the context's stored
// fingerprint. No envelope is opened.
func (m *managerUseCase) VerifyCredential(
	ctx context.Context,
	contextKey string,
	apiKey string,
) (bool, error) {
	m.mu.Lock()
	fingerprint, ok := m.fingerprint[contextKey]
	m.mu.Unlock()
	if !ok {
		return false, credentialDomain.ErrContextNotFound
	}

	return m.fingerprints.Verify(apiKey, fingerprint), nil
}

// TransitionHistory returns recent switch attempts, oldest first.
func (m *managerUseCase) TransitionHistory(ctx context.Context) []credentialDomain.TransitionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]credentialDomain.TransitionEvent, len(m.history))
	copy(history, m.history)
	return history
}

// pruneWindow drops successful transitions older than the sliding window.
// Caller must hold m.mu.
func (m *managerUseCase) pruneWindow(now time.Time) {
	cutoff := now.Add(-m.config.RateLimitWindow)
	keep := m.window[:0]
	for _, t := range m.window {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	m.window = keep
}

// recordTransition appends to the bounded history. Caller must hold m.mu.
func (m *managerUseCase) recordTransition(from, to string, at time.Time, outcome string) {
	m.history = append(m.history, credentialDomain.TransitionEvent{
		FromContext: from,
		ToContext:   to,
		Timestamp:   at,
		Outcome:     outcome,
	})
	if len(m.history) > transitionHistoryLimit {
		m.history = m.history[len(m.history)-transitionHistoryLimit:]
	}
}

// emit sends an audit event, logging instead of failing the operation when the
// sink is unavailable.
func (m *managerUseCase) emit(ctx context.Context, event, actor string, details map[string]any) {
	if m.audit == nil {
		return
	}
	requestID := auditDomain.RequestIDFromContext(ctx)
	if err := m.audit.Emit(ctx, requestID, event, actor, "", details); err != nil {
		m.logger.WarnContext(ctx, "failed to emit audit event",
			slog.String("event", event),
			slog.Any("error", err),
		)
	}
}
