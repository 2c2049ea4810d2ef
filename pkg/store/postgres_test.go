package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilovar-s/protokol/pkg/auth"
)

// newTestStore opens an in-memory SQLite database with foreign keys
// enabled so cascade deletes behave like PostgreSQL.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return NewWithDB(db)
}

func createTestUser(t *testing.T, s *SQLStore, username string, role auth.Role) *auth.User {
	t.Helper()
	user := &auth.User{
		Username:     username,
		Email:        username + "@mvd.test",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Role:         role,
	}
	require.NoError(t, s.Users().Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	return user
}

func createTestRecord(t *testing.T, s *SQLStore, ownerID, title string) *Interrogation {
	t.Helper()
	rec := &Interrogation{
		Title:     title,
		Date:      time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Suspect:   "Ivanov I.I.",
		Officer:   "Lt. Petrov",
		CreatedBy: Owner{ID: ownerID},
	}
	require.NoError(t, s.Interrogations().Create(context.Background(), rec))
	require.NotEmpty(t, rec.ID)
	return rec
}

func TestUserCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "petrov", auth.RoleInvestigator)

	got, err := s.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "petrov", got.Username)
	assert.Equal(t, "petrov@mvd.test", got.Email)
	assert.Equal(t, auth.RoleInvestigator, got.Role)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Users().GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "petrov", auth.RoleInvestigator)

	dup := &auth.User{
		Username:     "petrov",
		Email:        "other@mvd.test",
		PasswordHash: "x",
		Role:         auth.RoleInvestigator,
	}
	err := s.Users().Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserGetByLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "petrov", auth.RoleInvestigator)

	t.Run("by username", func(t *testing.T) {
		got, err := s.Users().GetByLogin(ctx, "petrov")
		require.NoError(t, err)
		assert.Equal(t, "petrov", got.Username)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := s.Users().GetByLogin(ctx, "petrov@mvd.test")
		require.NoError(t, err)
		assert.Equal(t, "petrov", got.Username)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, err := s.Users().GetByLogin(ctx, "sidorov")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "petrov", auth.RoleInvestigator)

	user.Role = auth.RoleAdmin
	user.Email = "chief@mvd.test"
	require.NoError(t, s.Users().Update(ctx, user))

	got, err := s.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, got.Role)
	assert.Equal(t, "chief@mvd.test", got.Email)

	missing := &auth.User{ID: "no-such-id", Username: "x", Role: auth.RoleInvestigator}
	assert.ErrorIs(t, s.Users().Update(ctx, missing), ErrNotFound)
}

func TestUserList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "petrov", auth.RoleInvestigator)
	createTestUser(t, s, "sidorov", auth.RoleAdmin)

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserDeleteCascadesRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	other := createTestUser(t, s, "sidorov", auth.RoleInvestigator)
	rec := createTestRecord(t, s, owner.ID, "Case 101")
	kept := createTestRecord(t, s, other.ID, "Case 102")

	require.NoError(t, s.Users().Delete(ctx, owner.ID))

	_, err := s.Users().GetByID(ctx, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// the owner's records went with them
	_, err = s.Interrogations().GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// other users' records are untouched
	got, err := s.Interrogations().GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Case 102", got.Title)

	assert.ErrorIs(t, s.Users().Delete(ctx, owner.ID), ErrNotFound)
}

func TestInterrogationCreateResolvesOwner(t *testing.T) {
	s := newTestStore(t)

	owner := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	rec := createTestRecord(t, s, owner.ID, "Case 101")

	assert.Equal(t, owner.ID, rec.CreatedBy.ID)
	assert.Equal(t, "petrov", rec.CreatedBy.Username)
	assert.Equal(t, "petrov@mvd.test", rec.CreatedBy.Email)
}

func TestInterrogationGetByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	rec := createTestRecord(t, s, owner.ID, "Case 101")

	got, err := s.Interrogations().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Case 101", got.Title)
	assert.Equal(t, "Ivanov I.I.", got.Suspect)
	assert.Equal(t, "petrov", got.CreatedBy.Username)

	_, err = s.Interrogations().GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInterrogationListByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	petrov := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	sidorov := createTestUser(t, s, "sidorov", auth.RoleInvestigator)
	createTestRecord(t, s, petrov.ID, "Case 101")
	createTestRecord(t, s, petrov.ID, "Case 102")
	createTestRecord(t, s, sidorov.ID, "Case 201")

	t.Run("owner filter", func(t *testing.T) {
		recs, err := s.Interrogations().ListByOwner(ctx, petrov.ID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		for _, rec := range recs {
			assert.Equal(t, petrov.ID, rec.CreatedBy.ID)
		}
	})

	t.Run("all records", func(t *testing.T) {
		recs, err := s.Interrogations().List(ctx)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("owner with no records", func(t *testing.T) {
		recs, err := s.Interrogations().ListByOwner(ctx, "no-such-id")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

func TestInterrogationUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	rec := createTestRecord(t, s, owner.ID, "Case 101")

	rec.Transcript = "Suspect denies involvement."
	rec.AudioFilePath = "uploads/audio-123.wav"
	require.NoError(t, s.Interrogations().Update(ctx, rec))

	got, err := s.Interrogations().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Suspect denies involvement.", got.Transcript)
	assert.Equal(t, "uploads/audio-123.wav", got.AudioFilePath)
	// unchanged fields survive
	assert.Equal(t, "Case 101", got.Title)
	// ownership unchanged
	assert.Equal(t, owner.ID, got.CreatedBy.ID)

	missing := &Interrogation{ID: "no-such-id"}
	assert.ErrorIs(t, s.Interrogations().Update(ctx, missing), ErrNotFound)
}

func TestInterrogationDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	rec := createTestRecord(t, s, owner.ID, "Case 101")

	require.NoError(t, s.Interrogations().Delete(ctx, rec.ID))
	_, err := s.Interrogations().GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Interrogations().Delete(ctx, rec.ID), ErrNotFound)
}

func TestReferencedFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "petrov", auth.RoleInvestigator)
	rec := createTestRecord(t, s, owner.ID, "Case 101")
	rec.AudioFilePath = "/uploads/audio-1.wav"
	rec.WordDocumentPath = "documents/interrogation-1.docx"
	require.NoError(t, s.Interrogations().Update(ctx, rec))
	createTestRecord(t, s, owner.ID, "Case 102") // no files attached

	refs, err := s.Interrogations().ReferencedFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Contains(t, refs, "uploads/audio-1.wav")
	assert.Contains(t, refs, "documents/interrogation-1.docx")
}
