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

// register handles POST /api/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	token, err := s.opts.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.log(r).WithError(err).Error("Token issuance failed")
		httputil.WriteInternalError(w)
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.TokensIssuedTotal.Inc()
	}

	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeAuthRegister,
		Status:       audit.EventStatusSuccess,
		ActorID:      user.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
	})

	httputil.WriteCreated(w, AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    profileOf(user),
	})
}

// login handles POST /api/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.opts.Users.GetByLogin(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.loginFailed(w, r, req.Username)
			return
		}
		s.log(r).WithError(err).Error("User lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.loginFailed(w, r, req.Username)
		return
	}

	token, err := s.opts.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.log(r).WithError(err).Error("Token issuance failed")
		httputil.WriteInternalError(w)
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		s.opts.Metrics.TokensIssuedTotal.Inc()
	}

	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeAuthLogin,
		Status:       audit.EventStatusSuccess,
		ActorID:      user.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
	})

	httputil.WriteSuccess(w, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    profileOf(user),
	})
}

// loginFailed reports a failed attempt without revealing whether the
// user exists or the password was wrong
func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, login string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
	}
	s.audit(r, &audit.Event{
		EventType: audit.EventTypeAuthLoginFailed,
		Status:    audit.EventStatusFailure,
		Detail:    login,
	})
	httputil.WriteValidationError(w, "Invalid credentials")
}

// profile handles GET /api/auth/profile
func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	user, err := s.opts.Users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		s.log(r).WithError(err).Error("User lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, profileOf(user))
}
