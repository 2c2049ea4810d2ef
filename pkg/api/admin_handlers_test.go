package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilovar-s/protokol/pkg/auth"
)

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	ts := newTestServer(t)
	invToken, _ := ts.register(t, "inv1", "secret123", auth.RoleInvestigator)

	rec := ts.do(t, http.MethodGet, "/api/admin/users", invToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", decodeMessage(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminListUsers(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "inv1", "secret123", auth.RoleInvestigator)
	adminToken, _ := ts.register(t, "chief", "secret123", auth.RoleAdmin)

	rec := ts.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []*auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "$2a$", "password hashes never serialize")
}

func TestAdminCreateUser(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "chief", "secret123", auth.RoleAdmin)

	t.Run("creates", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/admin/users", adminToken, CreateUserRequest{
			Username: "inv2",
			Password: "secret123",
			Role:     "investigator",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var user auth.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, "inv2", user.Username)

		// The created account can actually log in
		login := ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Username: "inv2",
			Password: "secret123",
		})
		assert.Equal(t, http.StatusOK, login.Code)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/admin/users", adminToken, CreateUserRequest{
			Username: "inv2",
			Password: "other",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "User already exists", decodeMessage(t, rec))
	})
}

func TestAdminUpdateUser(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "chief", "secret123", auth.RoleAdmin)
	_, invID := ts.register(t, "inv1", "secret123", auth.RoleInvestigator)

	t.Run("changes role and re-hashes password", func(t *testing.T) {
		role := "admin"
		password := "newsecret"
		rec := ts.do(t, http.MethodPut, "/api/admin/users/"+invID, adminToken, UpdateUserRequest{
			Role:     &role,
			Password: &password,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var user auth.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, auth.RoleAdmin, user.Role)

		login := ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Username: "inv1",
			Password: "newsecret",
		})
		assert.Equal(t, http.StatusOK, login.Code)

		stale := ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Username: "inv1",
			Password: "secret123",
		})
		assert.Equal(t, http.StatusBadRequest, stale.Code)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/admin/users/no-such-user", adminToken, UpdateUserRequest{})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeMessage(t, rec))
	})
}

func TestAdminDeleteUser(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "chief", "secret123", auth.RoleAdmin)
	invToken, invID := ts.register(t, "inv1", "secret123", auth.RoleInvestigator)

	rec := ts.do(t, http.MethodDelete, "/api/admin/users/"+invID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", decodeMessage(t, rec))

	t.Run("deleted user's token stops working", func(t *testing.T) {
		profile := ts.do(t, http.MethodGet, "/api/auth/profile", invToken, nil)
		assert.Equal(t, http.StatusUnauthorized, profile.Code)
		assert.Equal(t, "Invalid token", decodeMessage(t, profile))
	})

	t.Run("second delete is 404", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/api/admin/users/"+invID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
