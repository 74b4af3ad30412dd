package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

func TestPostgreSQLEventRepositoryCreate(t *testing.T) {
	t.Run("inserts event with details", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		repo := NewPostgreSQLEventRepository(db)
		event := newEvent(auditDomain.EventConflictResolution, time.Now().UTC())

		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, repo.Create(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		repo := NewPostgreSQLEventRepository(db)
		event := newEvent(auditDomain.EventContextSwitch, time.Now().UTC())
		event.Details = nil

		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnError(errors.New("connection lost"))

		assert.Error(t, repo.Create(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLEventRepositoryList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLEventRepository(db)
	now := time.Now().UTC()
	id := uuid.Must(uuid.NewV7())
	requestID := uuid.Must(uuid.NewV7())

	rows := sqlmock.NewRows([]string{
		"id", "request_id", "event", "actor_context", "source_ip", "details", "signature", "created_at",
	}).AddRow(
		id, requestID, auditDomain.EventThreatDetected, "none", "10.0.0.9",
		[]byte(`{"threat_type":"xss_attempt"}`), []byte{0x01}, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM audit_events").WillReturnRows(rows)

	events, err := repo.List(context.Background(), 0, 50, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, auditDomain.EventThreatDetected, events[0].Event)
	assert.Equal(t, "xss_attempt", events[0].Details["threat_type"])
	assert.Equal(t, "10.0.0.9", events[0].SourceIP)
}
