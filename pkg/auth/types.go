package auth

import (
	"fmt"
	"time"
)

// Role is the closed set of user roles
type Role string

const (
	// RoleInvestigator can manage only interrogations they created
	RoleInvestigator Role = "investigator"
	// RoleAdmin has full access to all records and user administration
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string against the closed set
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInvestigator:
		return RoleInvestigator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Valid reports whether the role is one of the known variants
func (r Role) Valid() bool {
	return r == RoleInvestigator || r == RoleAdmin
}

// User represents a persisted user account. PasswordHash is never
// serialized in API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the authenticated caller attached to the request context by
// the authentication gate. It is a request-lifetime, read-only association,
// never a stored relationship.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity carries the admin role
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
