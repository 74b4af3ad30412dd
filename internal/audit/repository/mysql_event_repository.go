package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	"github.com/allisson/credguard/internal/database"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// MySQLEventRepository implements audit event persistence for MySQL.
// UUIDs are stored as CHAR(36) since MySQL has no native UUID type.
type MySQLEventRepository struct {
	db *sql.DB
}

// NewMySQLEventRepository creates a new MySQL-backed event repository.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}

// Create inserts a new audit event. Handles nil details as database NULL.
func (m *MySQLEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, m.db)

	var detailsJSON []byte
	var err error

	if event.Details != nil {
		detailsJSON, err = json.Marshal(event.Details)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit event details")
		}
	}

	query := `INSERT INTO audit_events (id, request_id, event, actor_context, source_ip, details, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID.String(),
		event.RequestID.String(),
		event.Event,
		event.ActorContext,
		event.SourceIP,
		detailsJSON,
		event.Signature,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}

	return nil
}

// List retrieves audit events ordered by created_at descending with pagination
// and optional inclusive time-range filtering.
func (m *MySQLEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, request_id, event, actor_context, source_ip, details, signature, created_at
			  FROM audit_events WHERE 1=1`
	args := []any{}

	if createdAtFrom != nil {
		query += " AND created_at >= ?"
		args = append(args, *createdAtFrom)
	}
	if createdAtTo != nil {
		query += " AND created_at <= ?"
		args = append(args, *createdAtTo)
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*auditDomain.Event, 0)
	for rows.Next() {
		event, err := scanMySQLEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// scanMySQLEvent maps one row onto a domain event, parsing CHAR(36) UUID columns.
func scanMySQLEvent(rows *sql.Rows) (*auditDomain.Event, error) {
	var event auditDomain.Event
	var id, requestID string
	var detailsJSON []byte
	var sourceIP sql.NullString

	err := rows.Scan(
		&id,
		&requestID,
		&event.Event,
		&event.ActorContext,
		&sourceIP,
		&detailsJSON,
		&event.Signature,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit event")
	}

	if event.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit event id")
	}
	if event.RequestID, err = uuid.Parse(requestID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit event request id")
	}

	event.SourceIP = sourceIP.String

	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &event.Details); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event details")
		}
	}

	return &event, nil
}
