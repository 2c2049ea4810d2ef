package store

import (
	"context"
	"errors"
	"time"

	"github.com/dilovar-s/protokol/pkg/auth"
)

// ErrNotFound is returned when a record or user does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (username) is violated
var ErrDuplicate = errors.New("already exists")

// Owner is the public projection of the user that created a record
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Interrogation is a persisted case record. Every record has exactly one
// owner; the owner reference is immutable after creation.
type Interrogation struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	Suspect          string    `json:"suspect"`
	Officer          string    `json:"officer"`
	Transcript       string    `json:"transcript"`
	AudioFilePath    string    `json:"audioFilePath,omitempty"`
	WordDocumentPath string    `json:"wordDocumentPath,omitempty"`
	CreatedBy        Owner     `json:"createdBy"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UserStore persists user accounts
type UserStore interface {
	// Create persists a new user; ErrDuplicate on username collision.
	// The ID and timestamps are filled in on success.
	Create(ctx context.Context, user *auth.User) error

	// GetByID returns the user or ErrNotFound
	GetByID(ctx context.Context, id string) (*auth.User, error)

	// GetByLogin looks a user up by username; if the login contains "@"
	// it matches either the email or the username.
	GetByLogin(ctx context.Context, login string) (*auth.User, error)

	// List returns all users
	List(ctx context.Context) ([]*auth.User, error)

	// Update applies the given user state; ErrNotFound if absent,
	// ErrDuplicate on username collision
	Update(ctx context.Context, user *auth.User) error

	// Delete removes the user and, via cascade, all records they own
	Delete(ctx context.Context, id string) error
}

// InterrogationStore persists interrogation records
type InterrogationStore interface {
	// Create persists a new record owned by rec.CreatedBy.ID.
	// The ID and timestamps are filled in on success.
	Create(ctx context.Context, rec *Interrogation) error

	// GetByID returns the record with its owner projection, or ErrNotFound
	GetByID(ctx context.Context, id string) (*Interrogation, error)

	// List returns all records (admin view)
	List(ctx context.Context) ([]*Interrogation, error)

	// ListByOwner returns only records created by the given user.
	// The filter is part of the query, not applied after the fact.
	ListByOwner(ctx context.Context, ownerID string) ([]*Interrogation, error)

	// Update applies the given record state; ErrNotFound if absent.
	// The owner reference is never changed.
	Update(ctx context.Context, rec *Interrogation) error

	// Delete removes the record; ErrNotFound if absent
	Delete(ctx context.Context, id string) error

	// ReferencedFiles returns every audio and document path currently
	// recorded on any interrogation. Used by the janitor to spare
	// referenced files during cleanup.
	ReferencedFiles(ctx context.Context) (map[string]struct{}, error)
}
