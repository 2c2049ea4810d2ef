package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilovar-s/protokol/pkg/auth"
)

func TestUserCreateMapsPqUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	s := NewWithDB(db)
	err = s.Users().Create(context.Background(), &auth.User{
		Username: "petrov",
		Role:     auth.RoleInvestigator,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWrapsOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("connection reset"))

	s := NewWithDB(db)
	err = s.Users().Create(context.Background(), &auth.User{
		Username: "petrov",
		Role:     auth.RoleInvestigator,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "insert user")
}

func TestInterrogationListPropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("db is down"))

	s := NewWithDB(db)
	_, err = s.Interrogations().List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list interrogations")
}
