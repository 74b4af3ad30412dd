package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.Handler())
}

func TestProviderHandlerServesMetrics(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "credguard")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "credential", "switch_context", "success")
	bm.RecordDuration(ctx, "credential", "switch_context", 25*time.Millisecond, "success")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "credguard_operations_total")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()

	// Must not panic
	bm.RecordOperation(context.Background(), "sanitizer", "scan", "success")
	bm.RecordDuration(context.Background(), "sanitizer", "scan", time.Second, "success")
}
