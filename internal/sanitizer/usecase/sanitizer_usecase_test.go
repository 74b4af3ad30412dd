package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
	sanitizerService "github.com/allisson/credguard/internal/sanitizer/service"
)

// captureAuditSink records emitted events with their details.
type captureAuditSink struct {
	mu      sync.Mutex
	events  []string
	details []map[string]any
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
	c.details = append(c.details, details)
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

func (c *captureAuditSink) threatTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0)
	for _, d := range c.details {
		if t, ok := d["threat_type"].(string); ok {
			types = append(types, t)
		}
	}
	return types
}

func newTestSanitizer(t *testing.T, mode sanitizerDomain.Mode) (Sanitizer, *captureAuditSink) {
	t.Helper()
	audit := &captureAuditSink{}
	scanner := sanitizerService.NewScanner(sanitizerService.Config{
		MaxFieldLength: 64,
		MaxTotalSize:   1024,
	})
	return NewSanitizer(scanner, mode, audit, slog.New(slog.DiscardHandler)), audit
}

func TestSanitizerUseCase_StrictMode(t *testing.T) {
	ctx := context.Background()

	t.Run("clean input passes", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeStrict)

		result, err := sanitizer.Sanitize(ctx, map[string]any{"name": "Jordan"}, 0, "10.0.0.1")
		require.NoError(t, err)
		assert.Empty(t, result.Findings)
		assert.Empty(t, audit.threatTypes())
	})

	t.Run("xss payload is blocked", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeStrict)

		result, err := sanitizer.Sanitize(ctx, map[string]any{
			"bio": `<script>alert(1)</script>`,
		}, 0, "10.0.0.1")

		assert.ErrorIs(t, err, apperrors.ErrThreatDetected)
		assert.Nil(t, result.Sanitized)
		require.NotEmpty(t, result.Findings)
		assert.Equal(t, sanitizerDomain.CategoryXSS, result.Findings[0].Category)
		assert.Contains(t, audit.threatTypes(), "xss_attempt")
	})

	t.Run("sql injection payload is blocked and audited", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeStrict)

		_, err := sanitizer.Sanitize(ctx, map[string]any{
			"query": `a' OR '1'='1`,
		}, 0, "10.0.0.1")

		assert.ErrorIs(t, err, apperrors.ErrThreatDetected)
		assert.Contains(t, audit.threatTypes(), "sql_injection_attempt")
	})

	t.Run("audit details never contain the offending input", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeStrict)

		payload := `<script>alert("secret-marker")</script>`
		_, err := sanitizer.Sanitize(ctx, map[string]any{"bio": payload}, 0, "10.0.0.1")
		require.Error(t, err)

		audit.mu.Lock()
		defer audit.mu.Unlock()
		for _, details := range audit.details {
			for _, value := range details {
				if s, ok := value.(string); ok {
					assert.NotContains(t, s, "secret-marker")
				}
			}
		}
	})

	t.Run("sanitization is deterministic", func(t *testing.T) {
		sanitizer, _ := newTestSanitizer(t, sanitizerDomain.ModeStrict)

		input := func() map[string]any {
			return map[string]any{"bio": `<script>alert(1)</script>`, "q": `a' OR '1'='1`}
		}

		first, err1 := sanitizer.Sanitize(ctx, input(), 0, "10.0.0.1")
		second, err2 := sanitizer.Sanitize(ctx, input(), 0, "10.0.0.1")

		assert.Equal(t, err1, err2)
		assert.Equal(t, first.Findings, second.Findings)
	})
}

func TestSanitizerUseCase_ModerateMode(t *testing.T) {
	ctx := context.Background()

	t.Run("offending fields are rewritten, request passes", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeModerate)

		result, err := sanitizer.Sanitize(ctx, map[string]any{
			"bio":  `<script>alert(1)</script>`,
			"name": "Jordan",
		}, 0, "10.0.0.1")

		require.NoError(t, err)
		assert.NotContains(t, result.Sanitized["bio"].(string), "<script>")
		assert.Equal(t, "Jordan", result.Sanitized["name"])
		assert.NotEmpty(t, result.Findings)
		assert.Contains(t, audit.threatTypes(), "xss_attempt")
	})

	t.Run("clean fields pass untouched", func(t *testing.T) {
		sanitizer, _ := newTestSanitizer(t, sanitizerDomain.ModeModerate)

		result, err := sanitizer.Sanitize(ctx, map[string]any{"name": "Jordan"}, 0, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "Jordan", result.Sanitized["name"])
	})
}

func TestSanitizerUseCase_BasicMode(t *testing.T) {
	ctx := context.Background()

	t.Run("xss passes through untouched but is audited", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeBasic)

		result, err := sanitizer.Sanitize(ctx, map[string]any{
			"bio": `<script>alert(1)</script>`,
		}, 0, "10.0.0.1")

		require.NoError(t, err)
		assert.Equal(t, `<script>alert(1)</script>`, result.Sanitized["bio"])
		require.NotEmpty(t, result.Findings)
		assert.Equal(t, sanitizerDomain.CategoryXSS, result.Findings[0].Category)
		assert.Contains(t, audit.threatTypes(), "xss_attempt")
	})

	t.Run("control characters pass through untouched but are audited", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeBasic)

		result, err := sanitizer.Sanitize(ctx, map[string]any{
			"text": "with\x00null",
		}, 0, "10.0.0.1")

		require.NoError(t, err)
		assert.Equal(t, "with\x00null", result.Sanitized["text"])
		assert.Contains(t, audit.threatTypes(), "control_chars_attempt")
	})

	t.Run("oversized fields pass through untouched but are audited", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeBasic)

		result, err := sanitizer.Sanitize(ctx, map[string]any{
			"field": strings.Repeat("a", 100),
		}, 0, "10.0.0.1")

		require.NoError(t, err)
		assert.Len(t, result.Sanitized["field"].(string), 100)
		assert.Contains(t, audit.threatTypes(), "oversized_attempt")
	})
}

func TestSanitizerUseCase_SizeCap(t *testing.T) {
	ctx := context.Background()
	oversizedInput := func() map[string]any {
		return map[string]any{"blob": strings.Repeat("x", 2048)}
	}

	t.Run("strict blocks", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeStrict)

		_, err := sanitizer.Sanitize(ctx, oversizedInput(), 0, "10.0.0.1")
		assert.ErrorIs(t, err, sanitizerDomain.ErrInputTooLarge)
		assert.Contains(t, audit.threatTypes(), "oversized_attempt")
	})

	t.Run("moderate truncates and continues", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeModerate)

		result, err := sanitizer.Sanitize(ctx, oversizedInput(), 0, "10.0.0.1")
		require.NoError(t, err)
		assert.Len(t, result.Sanitized["blob"].(string), 64)
		assert.Contains(t, audit.threatTypes(), "oversized_attempt")
	})

	t.Run("basic passes through and audits", func(t *testing.T) {
		sanitizer, audit := newTestSanitizer(t, sanitizerDomain.ModeBasic)

		result, err := sanitizer.Sanitize(ctx, oversizedInput(), 0, "10.0.0.1")
		require.NoError(t, err)
		assert.Len(t, result.Sanitized["blob"].(string), 2048)
		assert.Contains(t, audit.threatTypes(), "oversized_attempt")
	})

	t.Run("extra request bytes count toward the cap", func(t *testing.T) {
		sanitizer, _ := newTestSanitizer(t, sanitizerDomain.ModeStrict)
		input := map[string]any{"note": strings.Repeat("x", 512)}

		_, err := sanitizer.Sanitize(ctx, input, 0, "10.0.0.1")
		require.NoError(t, err)

		_, err = sanitizer.Sanitize(ctx, input, 1024, "10.0.0.1")
		assert.ErrorIs(t, err, sanitizerDomain.ErrInputTooLarge)
	})
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, sanitizerDomain.ModeStrict, sanitizerDomain.ParseMode("strict"))
	assert.Equal(t, sanitizerDomain.ModeModerate, sanitizerDomain.ParseMode("moderate"))
	assert.Equal(t, sanitizerDomain.ModeBasic, sanitizerDomain.ParseMode("basic"))

	// Unknown modes fail closed
	assert.Equal(t, sanitizerDomain.ModeStrict, sanitizerDomain.ParseMode("paranoid"))
	assert.Equal(t, sanitizerDomain.ModeStrict, sanitizerDomain.ParseMode(""))
}
