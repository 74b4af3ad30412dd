// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"

	auditHTTP "github.com/allisson/credguard/internal/audit/http"
	auditService "github.com/allisson/credguard/internal/audit/service"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
	"github.com/allisson/credguard/internal/config"
	conflictHTTP "github.com/allisson/credguard/internal/conflict/http"
	conflictUsecase "github.com/allisson/credguard/internal/conflict/usecase"
	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	credentialHTTP "github.com/allisson/credguard/internal/credential/http"
	credentialService "github.com/allisson/credguard/internal/credential/service"
	credentialUsecase "github.com/allisson/credguard/internal/credential/usecase"
	"github.com/allisson/credguard/internal/database"
	"github.com/allisson/credguard/internal/http"
	"github.com/allisson/credguard/internal/metrics"
	sanitizerService "github.com/allisson/credguard/internal/sanitizer/service"
	sanitizerUsecase "github.com/allisson/credguard/internal/sanitizer/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Credential subsystem
	keychain           *credentialDomain.MasterKeyChain
	envelopeRepo       credentialUsecase.EnvelopeRepository
	envelopeRepoCloser io.Closer
	store              credentialUsecase.Store
	fingerprintService credentialService.FingerprintService
	manager            credentialUsecase.Manager
	contextHandler     *credentialHTTP.ContextHandler

	// Audit subsystem
	auditRepo    auditUsecase.EventRepository
	auditUseCase auditUsecase.UseCase
	auditHandler *auditHTTP.EventHandler

	// Sanitizer subsystem
	sanitizer sanitizerUsecase.Sanitizer

	// Conflict subsystem
	resolver        conflictUsecase.Resolver
	resourceHandler *conflictHTTP.ResourceHandler

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	keychainInit           sync.Once
	envelopeRepoInit       sync.Once
	storeInit              sync.Once
	fingerprintServiceInit sync.Once
	managerInit            sync.Once
	contextHandlerInit     sync.Once
	auditRepoInit          sync.Once
	auditUseCaseInit       sync.Once
	auditHandlerInit       sync.Once
	sanitizerInit          sync.Once
	resolverInit           sync.Once
	resourceHandlerInit    sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection used by the SQL audit backends.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		provider, providerErr := c.MetricsProvider()
		if providerErr != nil {
			err = providerErr
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.envelopeRepoCloser != nil {
		if err := c.envelopeRepoCloser.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("envelope repository close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Zero master key material last: the servers above may still be flushing
	// requests that hold cipher instances.
	if c.keychain != nil {
		c.keychain.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	contextHandler, err := c.ContextHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get context handler for http server: %w", err)
	}

	auditHandler, err := c.AuditHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit handler for http server: %w", err)
	}

	resourceHandler, err := c.ResourceHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get resource handler for http server: %w", err)
	}

	sanitizer, err := c.Sanitizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get sanitizer for http server: %w", err)
	}

	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential store for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	serverConfig := http.Config{
		Host:             c.config.ServerHost,
		Port:             c.config.ServerPort,
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
		MetricsNamespace: c.config.MetricsNamespace,
	}
	if c.config.HTTPRateLimitEnabled {
		serverConfig.RateLimitRPS = c.config.HTTPRateLimitRequestsPerSec
		serverConfig.RateLimitBurst = c.config.HTTPRateLimitBurst
	}

	handlers := http.Handlers{
		Context:  contextHandler,
		Audit:    auditHandler,
		Resource: resourceHandler,
	}

	return http.NewServer(serverConfig, handlers, sanitizer, store, meterProviderOrNil(provider), logger), nil
}

// meterProviderOrNil unwraps the OpenTelemetry meter provider, keeping the
// interface nil when metrics are disabled.
func meterProviderOrNil(provider *metrics.Provider) metric.MeterProvider {
	if provider == nil {
		return nil
	}
	return provider.MeterProvider()
}

// signingKey returns the raw active master key used to derive the audit
// signing key, or nil when no keychain is configured.
func (c *Container) signingKey() []byte {
	keychain, err := c.Keychain()
	if err != nil {
		return nil
	}
	active, ok := keychain.Active()
	if !ok {
		return nil
	}
	return active.Key
}

// auditSigner returns the signer used for tamper-evident audit events.
func (c *Container) auditSigner() auditService.Signer {
	return auditService.NewSigner()
}

// sanitizerConfig maps application configuration to the scanner config.
func (c *Container) sanitizerConfig() sanitizerService.Config {
	return sanitizerService.Config{
		MaxFieldLength: c.config.MaxInputFieldLength,
		MaxTotalSize:   c.config.MaxTotalInputSize,
	}
}
