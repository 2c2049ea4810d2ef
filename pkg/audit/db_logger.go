package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DBLogger writes audit events to the audit_events table
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger. The table is
// created by the store migrations.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db}, nil
}

// Log inserts the event
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	if event.EventType == "" {
		return fmt.Errorf("event type is required")
	}
	if event.Status == "" {
		return fmt.Errorf("event status is required")
	}

	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, event_type, status, actor_id, resource_type, resource_id, ip_address, request_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		event.ID, string(event.EventType), string(event.Status),
		event.ActorID, string(event.ResourceType), event.ResourceID,
		event.IPAddress, event.RequestID, event.Detail, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns the most recent events, newest first
func (l *DBLogger) Recent(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, event_type, status, actor_id, resource_type, resource_id, ip_address, request_id, detail, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var eventType, status, resourceType string
		err := rows.Scan(&e.ID, &eventType, &status, &e.ActorID, &resourceType,
			&e.ResourceID, &e.IPAddress, &e.RequestID, &e.Detail, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.EventType = EventType(eventType)
		e.Status = EventStatus(status)
		e.ResourceType = ResourceType(resourceType)
		events = append(events, &e)
	}
	return events, rows.Err()
}
