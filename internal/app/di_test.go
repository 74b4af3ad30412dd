package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credguard/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServerHost:              "localhost",
		ServerPort:              8080,
		LogLevel:                "info",
		StorageBackend:          "filesystem",
		StoragePath:             filepath.Join(dir, "envelopes"),
		EncryptionAlgorithm:     "aes-gcm",
		SanitizationMode:        "strict",
		MaxInputFieldLength:     8192,
		MaxTotalInputSize:       1048576,
		RateLimitWindow:         60 * time.Second,
		MaxTransitionsPerWindow: 60,
		ContextTTL:              time.Hour,
		AuditBackend:            "file",
		AuditFilePath:           filepath.Join(dir, "audit.log"),
		MetricsEnabled:          false,
	}
}

func setMasterKeyEnv(t *testing.T) {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	t.Setenv("MASTER_KEYS", "key-v1:"+base64.StdEncoding.EncodeToString(key))
	t.Setenv("ACTIVE_MASTER_KEY_ID", "key-v1")
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)
	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Equal(t, cfg, container.Config())
}

func TestContainerLogger(t *testing.T) {
	container := NewContainer(testConfig(t))

	logger := container.Logger()
	require.NotNil(t, logger)

	// Same instance on repeated access
	assert.Same(t, logger, container.Logger())
}

func TestContainerLazyInitialization(t *testing.T) {
	container := NewContainer(testConfig(t))

	assert.Nil(t, container.logger)

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.NotNil(t, container.logger)
}

func TestContainerKeychain(t *testing.T) {
	t.Run("missing environment yields error", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "")
		container := NewContainer(testConfig(t))

		_, err := container.Keychain()
		require.Error(t, err)

		// The error is cached for subsequent calls
		_, err2 := container.Keychain()
		assert.Equal(t, err.Error(), err2.Error())
	})

	t.Run("loads keychain from environment", func(t *testing.T) {
		setMasterKeyEnv(t)
		container := NewContainer(testConfig(t))

		keychain, err := container.Keychain()
		require.NoError(t, err)
		assert.Equal(t, "key-v1", keychain.ActiveMasterKeyID())
	})
}

func TestContainerStore(t *testing.T) {
	setMasterKeyEnv(t)
	container := NewContainer(testConfig(t))

	store, err := container.Store()
	require.NoError(t, err)
	require.NotNil(t, store)

	assert.True(t, store.HealthCheck(context.Background()))
}

func TestContainerStore_UnsupportedBackend(t *testing.T) {
	setMasterKeyEnv(t)
	cfg := testConfig(t)
	cfg.StorageBackend = "redis"
	container := NewContainer(cfg)

	_, err := container.Store()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend")
}

func TestContainerStore_UnsupportedAlgorithm(t *testing.T) {
	setMasterKeyEnv(t)
	cfg := testConfig(t)
	cfg.EncryptionAlgorithm = "des"
	container := NewContainer(cfg)

	_, err := container.Store()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encryption algorithm")
}

func TestContainerManager(t *testing.T) {
	setMasterKeyEnv(t)
	container := NewContainer(testConfig(t))

	manager, err := container.Manager()
	require.NoError(t, err)
	require.NotNil(t, manager)

	// The registry starts empty
	assert.Empty(t, manager.ListContexts(context.Background()))
}

func TestContainerSanitizer(t *testing.T) {
	setMasterKeyEnv(t)
	container := NewContainer(testConfig(t))

	sanitizer, err := container.Sanitizer()
	require.NoError(t, err)
	require.NotNil(t, sanitizer)
}

func TestContainerResolver_NotConfigured(t *testing.T) {
	container := NewContainer(testConfig(t))

	resolver, err := container.Resolver()
	require.NoError(t, err)
	assert.Nil(t, resolver)

	handler, err := container.ResourceHandler()
	require.NoError(t, err)
	assert.Nil(t, handler)
}

func TestContainerResolver_Configured(t *testing.T) {
	setMasterKeyEnv(t)
	cfg := testConfig(t)
	cfg.RemoteAPIBaseURL = "http://localhost:9090"
	cfg.RemoteAPITimeout = 10 * time.Second
	container := NewContainer(cfg)

	resolver, err := container.Resolver()
	require.NoError(t, err)
	assert.NotNil(t, resolver)
}

func TestContainerHTTPServer(t *testing.T) {
	setMasterKeyEnv(t)
	container := NewContainer(testConfig(t))

	server, err := container.HTTPServer()
	require.NoError(t, err)
	require.NotNil(t, server)
}

func TestContainerMetricsServer_Disabled(t *testing.T) {
	container := NewContainer(testConfig(t))

	server, err := container.MetricsServer()
	require.NoError(t, err)
	assert.Nil(t, server)
}

func TestContainerMetricsServer_Enabled(t *testing.T) {
	setMasterKeyEnv(t)
	cfg := testConfig(t)
	cfg.MetricsEnabled = true
	cfg.MetricsNamespace = "credguard"
	cfg.MetricsPort = 8081
	container := NewContainer(cfg)

	server, err := container.MetricsServer()
	require.NoError(t, err)
	assert.NotNil(t, server)
}

func TestContainerShutdown(t *testing.T) {
	container := NewContainer(testConfig(t))

	// Shutdown should not fail even if no components are initialized
	require.NoError(t, container.Shutdown(context.TODO()))
}

func TestContainerShutdown_Initialized(t *testing.T) {
	setMasterKeyEnv(t)
	container := NewContainer(testConfig(t))

	_, err := container.HTTPServer()
	require.NoError(t, err)

	require.NoError(t, container.Shutdown(context.Background()))
}
