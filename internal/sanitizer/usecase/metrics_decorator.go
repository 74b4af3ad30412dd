package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/credguard/internal/errors"
	"github.com/allisson/credguard/internal/metrics"
	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
)

// sanitizerWithMetrics decorates Sanitizer with metrics instrumentation.
type sanitizerWithMetrics struct {
	next    Sanitizer
	metrics metrics.BusinessMetrics
}

// NewSanitizerWithMetrics wraps a Sanitizer with metrics recording.
func NewSanitizerWithMetrics(sanitizer Sanitizer, m metrics.BusinessMetrics) Sanitizer {
	return &sanitizerWithMetrics{
		next:    sanitizer,
		metrics: m,
	}
}

// Sanitize records metrics for sanitization runs, distinguishing blocked
// requests from clean and rewritten ones.
func (d *sanitizerWithMetrics) Sanitize(
	ctx context.Context,
	input map[string]any,
	extraBytes int,
	sourceIP string,
) (*sanitizerDomain.Result, error) {
	start := time.Now()
	result, err := d.next.Sanitize(ctx, input, extraBytes, sourceIP)

	var status string
	switch {
	case apperrors.Is(err, apperrors.ErrThreatDetected):
		status = "blocked"
	case err != nil:
		status = "error"
	case len(result.Findings) > 0:
		status = "sanitized"
	default:
		status = "clean"
	}

	d.metrics.RecordOperation(ctx, "sanitizer", "scan", status)
	d.metrics.RecordDuration(ctx, "sanitizer", "scan", time.Since(start), status)

	return result, err
}

// Mode passes through without metrics.
func (d *sanitizerWithMetrics) Mode() sanitizerDomain.Mode {
	return d.next.Mode()
}
