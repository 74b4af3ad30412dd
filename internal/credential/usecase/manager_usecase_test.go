package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// fakeFingerprintService avoids Argon2id cost in manager tests.
type fakeFingerprintService struct{}

func (f *fakeFingerprintService) Hash(apiKey string) (string, error) {
	return "fp:" + apiKey, nil
}

func (f *fakeFingerprintService) Verify(apiKey string, fingerprint string) bool {
	return fingerprint == "fp:"+apiKey
}

// captureAuditSink records emitted events for assertions.
type captureAuditSink struct {
	mu     sync.Mutex
	events []string
}

func (c *captureAuditSink) Emit(
	ctx context.Context,
	requestID uuid.UUID,
	event string,
	actorContext string,
	sourceIP string,
	details map[string]any,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureAuditSink) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	return nil, nil
}

func (c *captureAuditSink) Verify(event *auditDomain.Event) error {
	return nil
}

func (c *captureAuditSink) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]string, len(c.events))
	copy(events, c.events)
	return events
}

func defaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		RateLimitWindow:         60 * time.Second,
		MaxTransitionsPerWindow: 60,
		ContextTTL:              time.Hour,
	}
}

func newTestManager(t *testing.T, config ManagerConfig) (*managerUseCase, *captureAuditSink) {
	t.Helper()
	audit := &captureAuditSink{}
	store := newTestStore(t, newMemoryEnvelopeRepository())

	manager := NewManager(store, &fakeFingerprintService{}, audit, config, testLogger())
	return manager.(*managerUseCase), audit
}

func validMaterial() map[string]string {
	return map[string]string{credentialDomain.APIKeyField: "clb_1234567890abcdef"}
}

func TestManagerUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("register super admin context", func(t *testing.T) {
		manager, audit := newTestManager(t, defaultManagerConfig())

		registered, err := manager.AddSuperAdminContext(ctx, validMaterial())
		require.NoError(t, err)
		assert.Equal(t, credentialDomain.SuperAdminContextKey, registered.Key)
		assert.Equal(t, credentialDomain.KindSuperAdmin, registered.Kind)
		assert.Contains(t, audit.recorded(), auditDomain.EventContextRegistered)
	})

	t.Run("register tenant context", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		registered, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)
		assert.Equal(t, "tenant:acme", registered.Key)
		assert.Equal(t, credentialDomain.KindTenantAdmin, registered.Kind)
		assert.Equal(t, "acme", registered.TenantID)
	})

	t.Run("missing api_key field is rejected", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddSuperAdminContext(ctx, map[string]string{"token": "value"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("api key without prefix is rejected", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddSuperAdminContext(ctx, map[string]string{
			credentialDomain.APIKeyField: "sk_1234567890abcdef12",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("short api key is rejected", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddSuperAdminContext(ctx, map[string]string{
			credentialDomain.APIKeyField: "clb_short",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("blank tenant id is rejected", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "", "admin", validMaterial())
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("tenant id with whitespace is rejected", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "ac me", "admin", validMaterial())
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("re-registering replaces credentials", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		replacement := map[string]string{credentialDomain.APIKeyField: "clb_fedcba0987654321xx"}
		_, err = manager.AddTenantContext(ctx, "acme", "admin", replacement)
		require.NoError(t, err)

		ok, err := manager.VerifyCredential(ctx, "tenant:acme", "clb_fedcba0987654321xx")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestManagerUseCase_SwitchContext(t *testing.T) {
	ctx := context.Background()

	t.Run("switch to registered context", func(t *testing.T) {
		manager, audit := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))

		active, err := manager.ActiveContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tenant:acme", active.Key)
		assert.Contains(t, audit.recorded(), auditDomain.EventContextSwitch)
	})

	t.Run("switch to unknown context is rejected", func(t *testing.T) {
		manager, audit := newTestManager(t, defaultManagerConfig())

		err := manager.SwitchContext(ctx, "tenant:ghost")
		assert.ErrorIs(t, err, credentialDomain.ErrContextNotFound)
		assert.Contains(t, audit.recorded(), auditDomain.EventContextSwitchDenied)

		_, err = manager.ActiveContext(ctx)
		assert.ErrorIs(t, err, credentialDomain.ErrNoActiveContext)
	})

	t.Run("switch to expired context is rejected", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		err = manager.SwitchContext(ctx, "tenant:acme")
		assert.ErrorIs(t, err, credentialDomain.ErrContextExpired)
	})

	t.Run("at most one context is active", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddSuperAdminContext(ctx, validMaterial())
		require.NoError(t, err)
		_, err = manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		require.NoError(t, manager.SwitchContext(ctx, credentialDomain.SuperAdminContextKey))
		assert.True(t, manager.IsSuperAdminMode(ctx))
		assert.False(t, manager.IsTenantMode(ctx, ""))

		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))
		assert.False(t, manager.IsSuperAdminMode(ctx))
		assert.True(t, manager.IsTenantMode(ctx, ""))
		assert.True(t, manager.IsTenantMode(ctx, "acme"))
		assert.False(t, manager.IsTenantMode(ctx, "globex"))

		active, err := manager.ActiveContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tenant:acme", active.Key)
	})

	t.Run("clear active context deactivates", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddSuperAdminContext(ctx, validMaterial())
		require.NoError(t, err)
		require.NoError(t, manager.SwitchContext(ctx, credentialDomain.SuperAdminContextKey))

		require.NoError(t, manager.ClearActiveContext(ctx))

		_, err = manager.ActiveContext(ctx)
		assert.ErrorIs(t, err, credentialDomain.ErrNoActiveContext)
		assert.False(t, manager.IsSuperAdminMode(ctx))
		assert.False(t, manager.IsTenantMode(ctx, ""))
	})

	t.Run("repeated switches to the active context consume budget", func(t *testing.T) {
		config := defaultManagerConfig()
		config.MaxTransitionsPerWindow = 2
		manager, _ := newTestManager(t, config)

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))
		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))

		err = manager.SwitchContext(ctx, "tenant:acme")
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)

		history := manager.TransitionHistory(ctx)
		require.Len(t, history, 3)
		assert.Equal(t, credentialDomain.TransitionSuccess, history[0].Outcome)
		assert.Equal(t, credentialDomain.TransitionSuccess, history[1].Outcome)
		assert.Equal(t, "tenant:acme", history[1].FromContext)
		assert.Equal(t, "tenant:acme", history[1].ToContext)
		assert.Equal(t, credentialDomain.TransitionDenied, history[2].Outcome)
	})
}

func TestManagerUseCase_RateLimit(t *testing.T) {
	ctx := context.Background()

	registerTenants := func(t *testing.T, manager *managerUseCase, count int) {
		t.Helper()
		for i := range count {
			_, err := manager.AddTenantContext(ctx, fmt.Sprintf("tenant%d", i), "admin", validMaterial())
			require.NoError(t, err)
		}
	}

	t.Run("61st switch inside the window is denied", func(t *testing.T) {
		manager, audit := newTestManager(t, defaultManagerConfig())
		registerTenants(t, manager, 2)

		base := time.Now()
		manager.now = func() time.Time { return base }

		for i := range 60 {
			target := fmt.Sprintf("tenant:tenant%d", i%2)
			require.NoError(t, manager.SwitchContext(ctx, target), "switch %d should succeed", i+1)
		}

		err := manager.SwitchContext(ctx, "tenant:tenant0")
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
		assert.Contains(t, audit.recorded(), auditDomain.EventContextSwitchDenied)
	})

	t.Run("61 switches to one target also trip the limit", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())
		registerTenants(t, manager, 1)

		base := time.Now()
		manager.now = func() time.Time { return base }

		for i := range 60 {
			require.NoError(t, manager.SwitchContext(ctx, "tenant:tenant0"), "switch %d should succeed", i+1)
		}

		err := manager.SwitchContext(ctx, "tenant:tenant0")
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	})

	t.Run("budget frees up once the window slides", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())
		registerTenants(t, manager, 2)

		base := time.Now()
		manager.now = func() time.Time { return base }

		for i := range 60 {
			require.NoError(t, manager.SwitchContext(ctx, fmt.Sprintf("tenant:tenant%d", i%2)))
		}
		assert.ErrorIs(t, manager.SwitchContext(ctx, "tenant:tenant0"), apperrors.ErrRateLimited)

		manager.now = func() time.Time { return base.Add(61 * time.Second) }
		assert.NoError(t, manager.SwitchContext(ctx, "tenant:tenant0"))
	})

	t.Run("denied attempts consume no budget", func(t *testing.T) {
		config := defaultManagerConfig()
		config.MaxTransitionsPerWindow = 2
		manager, _ := newTestManager(t, config)
		registerTenants(t, manager, 2)

		// Rejected switches to unknown contexts should not eat the budget
		for range 5 {
			assert.Error(t, manager.SwitchContext(ctx, "tenant:ghost"))
		}

		require.NoError(t, manager.SwitchContext(ctx, "tenant:tenant0"))
		require.NoError(t, manager.SwitchContext(ctx, "tenant:tenant1"))
	})

	t.Run("history records outcomes", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())
		registerTenants(t, manager, 1)

		require.NoError(t, manager.SwitchContext(ctx, "tenant:tenant0"))
		assert.Error(t, manager.SwitchContext(ctx, "tenant:ghost"))

		history := manager.TransitionHistory(ctx)
		require.Len(t, history, 2)
		assert.Equal(t, credentialDomain.TransitionSuccess, history[0].Outcome)
		assert.Equal(t, "tenant:tenant0", history[0].ToContext)
		assert.Equal(t, credentialDomain.TransitionRejected, history[1].Outcome)
	})
}

func TestManagerUseCase_Credentials(t *testing.T) {
	ctx := context.Background()

	t.Run("get active credentials", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)
		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))

		record, err := manager.GetActiveCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tenant:acme", record.ContextKey)
		assert.Equal(t, "clb_1234567890abcdef", record.APIKey())
	})

	t.Run("no active context", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.GetActiveCredentials(ctx)
		assert.ErrorIs(t, err, credentialDomain.ErrNoActiveContext)
	})

	t.Run("verify credential without decryption", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		ok, err := manager.VerifyCredential(ctx, "tenant:acme", "clb_1234567890abcdef")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = manager.VerifyCredential(ctx, "tenant:acme", "clb_wrongkey123456789")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("verify credential for unknown context", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.VerifyCredential(ctx, "tenant:ghost", "clb_1234567890abcdef")
		assert.ErrorIs(t, err, credentialDomain.ErrContextNotFound)
	})

	t.Run("rotate replaces credentials", func(t *testing.T) {
		manager, audit := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)
		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))

		rotated := map[string]string{credentialDomain.APIKeyField: "clb_fedcba0987654321xx"}
		_, err = manager.Rotate(ctx, "tenant:acme", rotated)
		require.NoError(t, err)

		record, err := manager.GetActiveCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, "clb_fedcba0987654321xx", record.APIKey())

		ok, err := manager.VerifyCredential(ctx, "tenant:acme", "clb_fedcba0987654321xx")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = manager.VerifyCredential(ctx, "tenant:acme", "clb_1234567890abcdef")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Contains(t, audit.recorded(), auditDomain.EventCredentialRotated)
	})

	t.Run("rotate unknown context", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.Rotate(ctx, "tenant:ghost", validMaterial())
		assert.ErrorIs(t, err, credentialDomain.ErrContextNotFound)
	})
}

func TestManagerUseCase_ExpireSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("removes expired contexts and deactivates", func(t *testing.T) {
		manager, audit := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)
		_, err = manager.AddTenantContext(ctx, "globex", "admin", validMaterial())
		require.NoError(t, err)
		require.NoError(t, manager.SwitchContext(ctx, "tenant:acme"))

		manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		count, err := manager.ExpireSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Empty(t, manager.ListContexts(ctx))
		assert.Contains(t, audit.recorded(), auditDomain.EventContextExpired)

		_, err = manager.ActiveContext(ctx)
		assert.ErrorIs(t, err, credentialDomain.ErrNoActiveContext)
	})

	t.Run("fresh contexts survive the sweep", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultManagerConfig())

		_, err := manager.AddTenantContext(ctx, "acme", "admin", validMaterial())
		require.NoError(t, err)

		count, err := manager.ExpireSweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Len(t, manager.ListContexts(ctx), 1)
	})
}
