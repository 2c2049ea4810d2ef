package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dilovar-s/protokol/pkg/auth"
)

// Config holds database connection configuration
type Config struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// DefaultConfig returns sensible connection pool defaults
func DefaultConfig() Config {
	return Config{
		MaxConns:    20,
		MinConns:    2,
		Timeout:     10 * time.Second,
		MaxLifetime: 1 * time.Hour,
		MaxIdleTime: 10 * time.Minute,
	}
}

// SQLStore bundles the SQL-backed user and interrogation stores over one
// connection pool
type SQLStore struct {
	db             *sql.DB
	users          *userSQL
	interrogations *interrogationSQL
}

// Open connects to PostgreSQL, configures the pool and applies migrations
func Open(cfg Config) (*SQLStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing database handle (used in tests)
func NewWithDB(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:             db,
		users:          &userSQL{db: db},
		interrogations: &interrogationSQL{db: db},
	}
}

// Users returns the user store view
func (s *SQLStore) Users() UserStore {
	return s.users
}

// Interrogations returns the interrogation store view
func (s *SQLStore) Interrogations() InterrogationStore {
	return s.interrogations
}

// DB exposes the underlying handle for health checks and the audit logger
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies database connectivity
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation matches both the pq error code and the SQLite message
// the tests run against.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- users ---

type userSQL struct {
	db *sql.DB
}

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func (s *userSQL) Create(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func scanUserRow(scanner interface{ Scan(...interface{}) error }) (*auth.User, error) {
	var user auth.User
	var role string
	err := scanner.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = auth.Role(role)
	return &user, nil
}

func (s *userSQL) GetByID(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUserRow(row)
}

// GetByLogin treats a login containing "@" as an email-or-username lookup,
// mirroring the login form.
func (s *userSQL) GetByLogin(ctx context.Context, login string) (*auth.User, error) {
	var row *sql.Row
	if strings.Contains(login, "@") {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1`, login)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1`, login)
	}
	return scanUserRow(row)
}

func (s *userSQL) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *userSQL) Update(ctx context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = $1, email = $2, password_hash = $3, role = $4, updated_at = $5
		WHERE id = $6
	`, user.Username, user.Email, user.PasswordHash, string(user.Role), user.UpdatedAt, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user; records they own are removed by the
// foreign-key cascade.
func (s *userSQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- interrogations ---

type interrogationSQL struct {
	db *sql.DB
}

const interrogationColumns = `
	i.id, i.title, i.date, i.suspect, i.officer, i.transcript,
	i.audio_file_path, i.word_document_path,
	i.created_at, i.updated_at,
	u.id, u.username, u.email`

const interrogationFrom = ` FROM interrogations i JOIN users u ON u.id = i.created_by `

func (s *interrogationSQL) Create(ctx context.Context, rec *Interrogation) error {
	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interrogations
			(id, title, date, suspect, officer, transcript, audio_file_path, word_document_path, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.ID, rec.Title, rec.Date, rec.Suspect, rec.Officer, rec.Transcript,
		rec.AudioFilePath, rec.WordDocumentPath, rec.CreatedBy.ID, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert interrogation: %w", err)
	}

	// Fill in the owner projection for the response
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email FROM users WHERE id = $1`, rec.CreatedBy.ID)
	if err := row.Scan(&rec.CreatedBy.ID, &rec.CreatedBy.Username, &rec.CreatedBy.Email); err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}
	return nil
}

func scanInterrogationRow(scanner interface{ Scan(...interface{}) error }) (*Interrogation, error) {
	var rec Interrogation
	err := scanner.Scan(
		&rec.ID, &rec.Title, &rec.Date, &rec.Suspect, &rec.Officer, &rec.Transcript,
		&rec.AudioFilePath, &rec.WordDocumentPath,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.CreatedBy.ID, &rec.CreatedBy.Username, &rec.CreatedBy.Email,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan interrogation: %w", err)
	}
	return &rec, nil
}

func (s *interrogationSQL) GetByID(ctx context.Context, id string) (*Interrogation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interrogationColumns+interrogationFrom+`WHERE i.id = $1`, id)
	return scanInterrogationRow(row)
}

func (s *interrogationSQL) query(ctx context.Context, query string, args ...interface{}) ([]*Interrogation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interrogations: %w", err)
	}
	defer rows.Close()

	var recs []*Interrogation
	for rows.Next() {
		rec, err := scanInterrogationRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *interrogationSQL) List(ctx context.Context) ([]*Interrogation, error) {
	return s.query(ctx,
		`SELECT `+interrogationColumns+interrogationFrom+`ORDER BY i.created_at DESC`)
}

func (s *interrogationSQL) ListByOwner(ctx context.Context, ownerID string) ([]*Interrogation, error) {
	return s.query(ctx,
		`SELECT `+interrogationColumns+interrogationFrom+`WHERE i.created_by = $1 ORDER BY i.created_at DESC`, ownerID)
}

// Update applies the record state. created_by is deliberately absent from
// the SET list: ownership is immutable.
func (s *interrogationSQL) Update(ctx context.Context, rec *Interrogation) error {
	rec.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE interrogations
		SET title = $1, date = $2, suspect = $3, officer = $4, transcript = $5,
			audio_file_path = $6, word_document_path = $7, updated_at = $8
		WHERE id = $9
	`, rec.Title, rec.Date, rec.Suspect, rec.Officer, rec.Transcript,
		rec.AudioFilePath, rec.WordDocumentPath, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("update interrogation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update interrogation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *interrogationSQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interrogations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete interrogation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete interrogation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *interrogationSQL) ReferencedFiles(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT audio_file_path, word_document_path FROM interrogations`)
	if err != nil {
		return nil, fmt.Errorf("list referenced files: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var audio, doc string
		if err := rows.Scan(&audio, &doc); err != nil {
			return nil, fmt.Errorf("scan referenced files: %w", err)
		}
		// Paths are stored URL-style ("/uploads/x.wav"); blob keys have
		// no leading slash.
		if audio != "" {
			refs[strings.TrimPrefix(audio, "/")] = struct{}{}
		}
		if doc != "" {
			refs[strings.TrimPrefix(doc, "/")] = struct{}{}
		}
	}
	return refs, rows.Err()
}
