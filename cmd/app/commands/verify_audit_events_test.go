package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditRepository "github.com/allisson/credguard/internal/audit/repository"
	auditService "github.com/allisson/credguard/internal/audit/service"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
)

func newTestAuditUseCase(t *testing.T, signingKey []byte) auditUsecase.UseCase {
	t.Helper()
	repo, err := auditRepository.NewFileEventRepository(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)
	return auditUsecase.NewUseCase(
		repo, auditService.NewSigner(), signingKey, slog.New(slog.DiscardHandler),
	)
}

func TestVerifyAuditEvents(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	t.Run("empty trail passes", func(t *testing.T) {
		useCase := newTestAuditUseCase(t, nil)

		var out bytes.Buffer
		err := verifyAuditEvents(ctx, useCase, &out, start, end, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "No audit events found")
	})

	t.Run("signed events verify", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		useCase := newTestAuditUseCase(t, key)
		for range 3 {
			require.NoError(t, useCase.Emit(ctx, uuid.Nil, "context_switch", "tenant:acme", "", nil))
		}

		var out bytes.Buffer
		err = verifyAuditEvents(ctx, useCase, &out, start, end, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "All signed events verified successfully")
	})

	t.Run("json report", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		useCase := newTestAuditUseCase(t, key)
		require.NoError(t, useCase.Emit(ctx, uuid.Nil, "context_switch", "tenant:acme", "", nil))

		var out bytes.Buffer
		err = verifyAuditEvents(ctx, useCase, &out, start, end, "json")
		require.NoError(t, err)

		var report VerificationReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, 1, report.TotalChecked)
		assert.Equal(t, 1, report.ValidCount)
		assert.Equal(t, 0, report.InvalidCount)
	})

	t.Run("unsigned events counted separately", func(t *testing.T) {
		useCase := newTestAuditUseCase(t, nil)
		require.NoError(t, useCase.Emit(ctx, uuid.Nil, "context_switch", "tenant:acme", "", nil))

		var out bytes.Buffer
		err := verifyAuditEvents(ctx, useCase, &out, start, end, "json")
		require.NoError(t, err)

		var report VerificationReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, 1, report.UnsignedCount)
		assert.Equal(t, 0, report.SignedCount)
	})
}

func TestParseDate(t *testing.T) {
	t.Run("date only", func(t *testing.T) {
		parsed, err := parseDate("2026-01-15")
		require.NoError(t, err)
		assert.Equal(t, 2026, parsed.Year())
		assert.Equal(t, time.January, parsed.Month())
	})

	t.Run("date and time", func(t *testing.T) {
		parsed, err := parseDate("2026-01-15 10:30:00")
		require.NoError(t, err)
		assert.Equal(t, 10, parsed.Hour())
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := parseDate("yesterday")
		assert.Error(t, err)
	})
}
