package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/audit"
	"github.com/jdutton/n8n-pii-sanitization/internal/repository"
)

// AuditRepository implements repository.AuditRepository for SQLite
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log inserts a new session event
func (r *AuditRepository) Log(ctx context.Context, event *audit.Event) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO session_events (
			event_id, session_id, event_type, persons, turns, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.SessionID,
		event.Type,
		event.Persons,
		event.Turns,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log session event: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		event.ID = id
	}
	event.CreatedAt = createdAt

	return nil
}

// List returns session events matching the given filters, newest first
func (r *AuditRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Event, error) {
	query := `
		SELECT id, event_id, session_id, event_type, persons, turns, created_at
		FROM session_events
		WHERE 1 = 1
	`

	var args []interface{}
	if opts.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, opts.SessionID)
	}
	if opts.Type != "" {
		query += " AND event_type = ?"
		args = append(args, opts.Type)
	}

	query += " ORDER BY id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var event audit.Event
		if err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.SessionID,
			&event.Type,
			&event.Persons,
			&event.Turns,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session event rows: %w", err)
	}

	return events, nil
}

// GetLast returns the most recent event for a session
func (r *AuditRepository) GetLast(ctx context.Context, sessionID string) (*audit.Event, error) {
	query := `
		SELECT id, event_id, session_id, event_type, persons, turns, created_at
		FROM session_events
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	var event audit.Event
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&event.ID,
		&event.EventID,
		&event.SessionID,
		&event.Type,
		&event.Persons,
		&event.Turns,
		&event.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last session event: %w", err)
	}

	return &event, nil
}
