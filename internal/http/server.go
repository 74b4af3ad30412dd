package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	auditHTTP "github.com/allisson/credguard/internal/audit/http"
	conflictHTTP "github.com/allisson/credguard/internal/conflict/http"
	credentialHTTP "github.com/allisson/credguard/internal/credential/http"
	credentialUsecase "github.com/allisson/credguard/internal/credential/usecase"
	"github.com/allisson/credguard/internal/metrics"
	sanitizerHTTP "github.com/allisson/credguard/internal/sanitizer/http"
	sanitizerUsecase "github.com/allisson/credguard/internal/sanitizer/usecase"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host             string
	Port             int
	CORSEnabled      bool
	CORSAllowOrigins string
	RateLimitRPS     float64
	RateLimitBurst   int
	MetricsNamespace string
}

// Handlers groups the route handlers mounted on the API server.
type Handlers struct {
	Context  *credentialHTTP.ContextHandler
	Audit    *auditHTTP.EventHandler
	Resource *conflictHTTP.ResourceHandler
}

// Server is the main API server.
type Server struct {
	server *http.Server
	router *gin.Engine
	store  credentialUsecase.Store
	logger *slog.Logger
}

// NewServer creates the API server with its full middleware chain and routes.
// sanitizer and meterProvider may be nil, in which case the corresponding
// middleware is not installed.
func NewServer(
	config Config,
	handlers Handlers,
	sanitizer sanitizerUsecase.Sanitizer,
	store credentialUsecase.Store,
	meterProvider metric.MeterProvider,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}
	s.router = s.setupRouter(config, handlers, sanitizer, meterProvider)
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRouter(
	config Config,
	handlers Handlers,
	sanitizer sanitizerUsecase.Sanitizer,
	meterProvider metric.MeterProvider,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(RequestIDContextMiddleware())
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(
		config.CORSEnabled, config.CORSAllowOrigins, s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		namespace := config.MetricsNamespace
		if namespace == "" {
			namespace = "credguard"
		}
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, namespace))
	}

	if config.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(config.RateLimitRPS, config.RateLimitBurst, s.logger))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if sanitizer != nil {
		v1.Use(sanitizerHTTP.SanitizationMiddleware(sanitizer, s.logger))
	}

	if handlers.Context != nil {
		v1.POST("/contexts/super-admin", handlers.Context.RegisterSuperAdminHandler)
		v1.POST("/contexts/tenants", handlers.Context.RegisterTenantHandler)
		v1.POST("/contexts/switch", handlers.Context.SwitchHandler)
		v1.DELETE("/contexts/active", handlers.Context.ClearActiveHandler)
		v1.GET("/contexts/active", handlers.Context.GetActiveHandler)
		v1.GET("/contexts/active/credentials", handlers.Context.GetActiveCredentialsHandler)
		v1.GET("/contexts/mode", handlers.Context.GetModeHandler)
		v1.GET("/contexts", handlers.Context.ListHandler)
		v1.POST("/contexts/rotate", handlers.Context.RotateHandler)
		v1.POST("/contexts/verify", handlers.Context.VerifyHandler)
		v1.POST("/contexts/sweep", handlers.Context.SweepHandler)
		v1.GET("/contexts/transitions", handlers.Context.TransitionsHandler)
		v1.GET("/storage/health", handlers.Context.HealthHandler)
	}

	if handlers.Audit != nil {
		v1.GET("/audit-events", handlers.Audit.ListHandler)
	}

	if handlers.Resource != nil {
		v1.POST("/resources", handlers.Resource.CreateHandler)
	}

	return router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic: the
// credential store must complete an encrypt-store-retrieve round trip.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.store == nil || !s.store.HealthCheck(c.Request.Context()) {
		components["storage"] = "error"
		ready = false
	} else {
		components["storage"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// GetHandler returns the router for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}
