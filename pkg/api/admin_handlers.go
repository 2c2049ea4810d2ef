package api

import (
	"errors"
	"net/http"

	"github.com/dilovar-s/protokol/pkg/audit"
	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/httputil"
	"github.com/dilovar-s/protokol/pkg/middleware"
	"github.com/dilovar-s/protokol/pkg/store"
)

// listUsers handles GET /api/admin/users. The password hash never
// serializes, so the raw user type is safe to return.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.opts.Users.List(r.Context())
	if err != nil {
		s.log(r).WithError(err).Error("User listing failed")
		httputil.WriteInternalError(w)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	httputil.WriteSuccess(w, users)
}

// getUser handles GET /api/admin/users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.opts.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		s.log(r).WithError(err).Error("User lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, user)
}

// createUser handles POST /api/admin/users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "Missing required fields")
		return
	}

	role := auth.RoleInvestigator
	if req.Role != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			httputil.WriteValidationError(w, "Invalid role")
			return
		}
		role = parsed
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		s.log(r).WithError(err).Error("Password hashing failed")
		httputil.WriteInternalError(w)
		return
	}

	user := &auth.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.opts.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteValidationError(w, "User already exists")
			return
		}
		s.log(r).WithError(err).Error("User creation failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeAdminUserCreate,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
	})

	httputil.WriteCreated(w, user)
}

// updateUser handles PUT /api/admin/users/{id}. A provided password is
// re-hashed; an explicit empty email clears the stored one.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.opts.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		s.log(r).WithError(err).Error("User lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	if req.Username != nil && *req.Username != "" {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil && *req.Role != "" {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			httputil.WriteValidationError(w, "Invalid role")
			return
		}
		user.Role = role
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password, s.opts.BcryptCost)
		if err != nil {
			s.log(r).WithError(err).Error("Password hashing failed")
			httputil.WriteInternalError(w)
			return
		}
		user.PasswordHash = hash
	}

	if err := s.opts.Users.Update(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteValidationError(w, "User already exists")
			return
		}
		s.log(r).WithError(err).Error("User update failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeAdminUserUpdate,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
	})

	httputil.WriteSuccess(w, user)
}

// deleteUser handles DELETE /api/admin/users/{id}. The store cascades,
// removing every interrogation record the user owned.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.opts.Users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		s.log(r).WithError(err).Error("User deletion failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeAdminUserDelete,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   id,
	})

	httputil.WriteMessage(w, http.StatusOK, "User deleted successfully")
}
