package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	"github.com/allisson/credguard/internal/database"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// PostgreSQLEventRepository implements audit event persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLEventRepository creates a new PostgreSQL-backed event repository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}

// Create inserts a new audit event. Handles nil details as database NULL.
func (p *PostgreSQLEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, p.db)

	var detailsJSON []byte
	var err error

	if event.Details != nil {
		detailsJSON, err = json.Marshal(event.Details)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit event details")
		}
	}

	query := `INSERT INTO audit_events (id, request_id, event, actor_context, source_ip, details, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.RequestID,
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
func (p *PostgreSQLEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, request_id, event, actor_context, source_ip, details, signature, created_at
			  FROM audit_events
			  WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			    AND ($2::timestamptz IS NULL OR created_at <= $2)
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, createdAtFrom, createdAtTo, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*auditDomain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
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

// scanEvent maps one row onto a domain event, handling NULL details and signature.
func scanEvent(rows *sql.Rows) (*auditDomain.Event, error) {
	var event auditDomain.Event
	var detailsJSON []byte
	var sourceIP sql.NullString

	err := rows.Scan(
		&event.ID,
		&event.RequestID,
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

	event.SourceIP = sourceIP.String

	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &event.Details); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event details")
		}
	}

	return &event, nil
}
