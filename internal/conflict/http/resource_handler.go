// Package http provides HTTP handlers for idempotent resource provisioning.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/credguard/internal/conflict/http/dto"
	conflictUsecase "github.com/allisson/credguard/internal/conflict/usecase"
	"github.com/allisson/credguard/internal/httputil"
	customValidation "github.com/allisson/credguard/internal/validation"
)

// ResourceHandler handles HTTP requests for resource provisioning.
type ResourceHandler struct {
	resolver conflictUsecase.Resolver
	logger   *slog.Logger
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(resolver conflictUsecase.Resolver, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// CreateHandler provisions a resource idempotently: 201 when it was created,
// 200 when an equivalent resource already existed.
// POST /v1/resources
func (h *ResourceHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.resolver.GetOrCreate(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Existed {
		status = http.StatusOK
	}
	c.JSON(status, dto.MapResultToResponse(result))
}
