// Package http provides HTTP handlers for credential context management.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/credguard/internal/credential/http/dto"
	credentialUsecase "github.com/allisson/credguard/internal/credential/usecase"
	"github.com/allisson/credguard/internal/httputil"
	customValidation "github.com/allisson/credguard/internal/validation"
)

// ContextHandler handles HTTP requests for credential context operations.
type ContextHandler struct {
	manager credentialUsecase.Manager
	store   credentialUsecase.Store
	logger  *slog.Logger
}

// NewContextHandler creates a new context handler with required dependencies.
func NewContextHandler(
	manager credentialUsecase.Manager,
	store credentialUsecase.Store,
	logger *slog.Logger,
) *ContextHandler {
	return &ContextHandler{
		manager: manager,
		store:   store,
		logger:  logger,
	}
}

// RegisterSuperAdminHandler registers the global administrative context.
// POST /v1/contexts/super-admin
func (h *ContextHandler) RegisterSuperAdminHandler(c *gin.Context) {
	var req dto.RegisterSuperAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	registered, err := h.manager.AddSuperAdminContext(c.Request.Context(), req.SecretMaterial)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapContextToResponse(registered))
}

// RegisterTenantHandler registers a tenant administrative context.
// POST /v1/contexts/tenants
func (h *ContextHandler) RegisterTenantHandler(c *gin.Context) {
	var req dto.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	registered, err := h.manager.AddTenantContext(
		c.Request.Context(), req.TenantID, req.Role, req.SecretMaterial,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapContextToResponse(registered))
}

// SwitchHandler activates a registered context.
// POST /v1/contexts/switch
func (h *ContextHandler) SwitchHandler(c *gin.Context) {
	var req dto.SwitchContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.manager.SwitchContext(c.Request.Context(), req.ContextKey); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	active, err := h.manager.ActiveContext(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapContextToResponse(active))
}

// ClearActiveHandler deactivates the current context.
// DELETE /v1/contexts/active
func (h *ContextHandler) ClearActiveHandler(c *gin.Context) {
	if err := h.manager.ClearActiveContext(c.Request.Context()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetActiveHandler returns the active context's metadata.
// GET /v1/contexts/active
func (h *ContextHandler) GetActiveHandler(c *gin.Context) {
	active, err := h.manager.ActiveContext(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapContextToResponse(active))
}

// GetActiveCredentialsHandler returns the active context's secret material.
// GET /v1/contexts/active/credentials
func (h *ContextHandler) GetActiveCredentialsHandler(c *gin.Context) {
	record, err := h.manager.GetActiveCredentials(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordToResponse(record))
}

// GetModeHandler reports which kind of context is active. An optional
// tenant_id query parameter narrows the tenant check to that tenant.
// GET /v1/contexts/mode
func (h *ContextHandler) GetModeHandler(c *gin.Context) {
	response := dto.ModeResponse{
		SuperAdmin: h.manager.IsSuperAdminMode(c.Request.Context()),
		Tenant:     h.manager.IsTenantMode(c.Request.Context(), c.Query("tenant_id")),
	}
	if active, err := h.manager.ActiveContext(c.Request.Context()); err == nil {
		response.ActiveContext = active.Key
	}

	c.JSON(http.StatusOK, response)
}

// ListHandler returns all registered contexts.
// GET /v1/contexts
func (h *ContextHandler) ListHandler(c *gin.Context) {
	contexts := h.manager.ListContexts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"contexts": dto.MapContextsToResponse(contexts)})
}

// RotateHandler replaces a context's credentials.
// POST /v1/contexts/rotate
func (h *ContextHandler) RotateHandler(c *gin.Context) {
	var req dto.RotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	rotated, err := h.manager.Rotate(c.Request.Context(), req.ContextKey, req.SecretMaterial)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapContextToResponse(rotated))
}

// VerifyHandler checks an API key against a context's fingerprint.
// POST /v1/contexts/verify
func (h *ContextHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	valid, err := h.manager.VerifyCredential(c.Request.Context(), req.ContextKey, req.APIKey)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyCredentialResponse{Valid: valid})
}

// SweepHandler removes expired contexts.
// POST /v1/contexts/sweep
func (h *ContextHandler) SweepHandler(c *gin.Context) {
	removed, err := h.manager.ExpireSweep(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{Removed: removed})
}

// TransitionsHandler returns recent context switch attempts.
// GET /v1/contexts/transitions
func (h *ContextHandler) TransitionsHandler(c *gin.Context) {
	history := h.manager.TransitionHistory(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"transitions": dto.MapTransitionsToResponse(history)})
}

// HealthHandler reports whether the storage round trip works.
// GET /v1/storage/health
func (h *ContextHandler) HealthHandler(c *gin.Context) {
	if !h.store.HealthCheck(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
