package api

import (
	"time"

	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/store"
)

// RegisterRequest creates a user account. Email is optional; an empty
// role defaults to investigator.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest authenticates by username, or by email when the login
// contains "@".
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserProfile is the public projection of a user account
type UserProfile struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
}

func profileOf(u *auth.User) UserProfile {
	return UserProfile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// AuthResponse is returned from register and login
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserProfile `json:"user"`
}

// CreateInterrogationRequest creates a record. Title, date, suspect and
// officer are required; the transcript defaults to empty.
type CreateInterrogationRequest struct {
	Title      string `json:"title"`
	Date       string `json:"date"`
	Suspect    string `json:"suspect"`
	Officer    string `json:"officer"`
	Transcript string `json:"transcript"`
}

// UpdateInterrogationRequest applies a partial update. Pointer fields
// distinguish "absent" from "set to empty"; absent fields keep their
// stored value. The owner is never part of an update.
type UpdateInterrogationRequest struct {
	Title            *string `json:"title"`
	Date             *string `json:"date"`
	Suspect          *string `json:"suspect"`
	Officer          *string `json:"officer"`
	Transcript       *string `json:"transcript"`
	AudioFilePath    *string `json:"audioFilePath"`
	WordDocumentPath *string `json:"wordDocumentPath"`
}

// CreateUserRequest is the admin variant of user creation
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest applies a partial update to a user. A provided
// password is re-hashed; an empty email pointer clears the email.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type uploadAudioResponse struct {
	Message       string               `json:"message"`
	FilePath      string               `json:"filePath"`
	Transcript    string               `json:"transcript"`
	Interrogation *store.Interrogation `json:"interrogation"`
}

type generateDocumentResponse struct {
	Message       string               `json:"message"`
	DocumentPath  string               `json:"documentPath"`
	Filename      string               `json:"filename"`
	Interrogation *store.Interrogation `json:"interrogation"`
}

// parseDate accepts a bare calendar date or a full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
