// Package http provides the request sanitization middleware.
package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/credguard/internal/httputil"
	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
	sanitizerUsecase "github.com/allisson/credguard/internal/sanitizer/usecase"
)

// SanitizationMiddleware scans query parameters and JSON request bodies before
// they reach handlers. In strict mode a detected threat aborts the request; in
// moderate mode the offending values are replaced with their sanitized form;
// in basic mode findings are audited and the request proceeds untouched.
// Header bytes count toward the total size cap. Non-JSON and empty bodies
// pass through untouched.
func SanitizationMiddleware(sanitizer sanitizerUsecase.Sanitizer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		extra := headerBytes(c.Request.Header)

		if !sanitizeQuery(c, sanitizer, extra, logger) {
			return
		}

		if !hasJSONBody(c) {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			httputil.HandleBadRequestGin(c, err, logger)
			c.Abort()
			return
		}
		_ = c.Request.Body.Close()

		if len(bytes.TrimSpace(body)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			c.Next()
			return
		}

		var input map[string]any
		if err := json.Unmarshal(body, &input); err != nil {
			// Not a JSON object. Handlers report their own binding errors.
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			c.Next()
			return
		}

		result, err := sanitizer.Sanitize(c.Request.Context(), input, extra, c.ClientIP())
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if len(result.Findings) > 0 && sanitizer.Mode() == sanitizerDomain.ModeModerate {
			sanitized, err := json.Marshal(result.Sanitized)
			if err != nil {
				httputil.HandleErrorGin(c, err, logger)
				c.Abort()
				return
			}
			body = sanitized
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Request.ContentLength = int64(len(body))
		c.Next()
	}
}

// sanitizeQuery scans the URL query parameters and, in moderate mode,
// replaces the raw query with its rewritten form before the handler reads it.
// Returns false when the request was aborted.
func sanitizeQuery(
	c *gin.Context,
	sanitizer sanitizerUsecase.Sanitizer,
	extra int,
	logger *slog.Logger,
) bool {
	query := c.Request.URL.Query()
	if len(query) == 0 {
		return true
	}

	input := make(map[string]any, len(query))
	for key, values := range query {
		if len(values) == 1 {
			input[key] = values[0]
			continue
		}
		items := make([]any, len(values))
		for i, value := range values {
			items[i] = value
		}
		input[key] = items
	}

	result, err := sanitizer.Sanitize(c.Request.Context(), input, extra, c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, err, logger)
		c.Abort()
		return false
	}

	if len(result.Findings) > 0 && sanitizer.Mode() == sanitizerDomain.ModeModerate {
		rewritten := url.Values{}
		for key, value := range result.Sanitized {
			switch typed := value.(type) {
			case string:
				rewritten.Set(key, typed)
			case []any:
				for _, item := range typed {
					if s, ok := item.(string); ok {
						rewritten.Add(key, s)
					}
				}
			}
		}
		c.Request.URL.RawQuery = rewritten.Encode()
	}

	return true
}

// headerBytes sums the byte size of every header name and value.
func headerBytes(header http.Header) int {
	total := 0
	for key, values := range header {
		total += len(key)
		for _, value := range values {
			total += len(value)
		}
	}
	return total
}

func hasJSONBody(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	contentType := c.GetHeader("Content-Type")
	return strings.Contains(contentType, "application/json")
}
