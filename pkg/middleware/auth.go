package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/contextkeys"
	"github.com/dilovar-s/protokol/pkg/httputil"
	"github.com/dilovar-s/protokol/pkg/store"
)

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	tokens *auth.TokenService
	users  store.UserStore
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens *auth.TokenService, users store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "Access token required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.WriteUnauthorized(w, "Access token required")
			return
		}

		claims, err := m.tokens.Verify(parts[1])
		if err != nil {
			httputil.WriteForbidden(w, "Invalid or expired token")
			return
		}

		// Re-resolve the user so deleted accounts lose access immediately
		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httputil.WriteUnauthorized(w, "Invalid token")
				return
			}
			httputil.WriteInternalError(w)
			return
		}

		identity := &auth.Identity{
			UserID: user.ID,
			Role:   user.Role,
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the authenticated identity from the request
func GetIdentity(r *http.Request) *auth.Identity {
	value := r.Context().Value(contextkeys.IdentityKey)
	if value == nil {
		return nil
	}
	identity, ok := value.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireRole creates middleware that restricts a route to one role
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r)
			if identity == nil {
				httputil.WriteUnauthorized(w, "Access token required")
				return
			}

			if identity.Role != role {
				httputil.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
