package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements are written in the dialect subset shared by PostgreSQL
// and SQLite: ids are application-generated UUID strings, the role column is
// constrained with CHECK instead of a native enum, and the owner foreign key
// cascades so that deleting a user deletes their records.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'investigator' CHECK (role IN ('investigator', 'admin')),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interrogations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		suspect TEXT NOT NULL,
		officer TEXT NOT NULL,
		transcript TEXT NOT NULL DEFAULT '',
		audio_file_path TEXT NOT NULL DEFAULT '',
		word_document_path TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interrogations_created_by ON interrogations(created_by)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		status TEXT NOT NULL,
		actor_id TEXT,
		resource_type TEXT,
		resource_id TEXT,
		ip_address TEXT,
		request_id TEXT,
		detail TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at)`,
}

// Migrate creates the schema if it does not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
