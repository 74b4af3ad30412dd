// Package http provides HTTP handlers for the audit trail.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/credguard/internal/audit/http/dto"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
	"github.com/allisson/credguard/internal/httputil"
)

// EventHandler handles HTTP requests for audit event queries.
type EventHandler struct {
	useCase auditUsecase.UseCase
	logger  *slog.Logger
}

// NewEventHandler creates a new audit event handler.
func NewEventHandler(useCase auditUsecase.UseCase, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// ListHandler returns audit events newest first, with pagination and optional
// inclusive time-range filters.
// GET /v1/audit-events?offset=0&limit=50&created_at_from=...&created_at_to=...
func (h *EventHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	createdAtFrom, err := parseTimeQuery(c, "created_at_from")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	createdAtTo, err := parseTimeQuery(c, "created_at_to")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	events, err := h.useCase.List(c.Request.Context(), offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_events": dto.MapEventsToResponse(events),
		"offset":       offset,
		"limit":        limit,
	})
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: must be RFC3339", name)
	}
	return &parsed, nil
}
