package auth

import (
	"context"
	"time"
)

// User represents a user account
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	ImageURL     string `json:"image_url,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Phone        int64  `json:"phone,omitempty"`
	IsAdmin      bool   `json:"is_admin"`
	IsPublic     bool   `json:"is_public"`
	IsActive     bool   `json:"is_active"`
	IsExpired    bool   `json:"is_expired"`
	// Federated marks accounts created through an external identity
	// provider; they have a random placeholder password and no locally
	// chosen one.
	Federated bool `json:"federated"`
	// CurrentToken is the last issued token. A presented token is only
	// valid while it equals this value.
	CurrentToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Profile is the public projection of a user returned by listing endpoints
type Profile struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url,omitempty"`
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	Phone    int64  `json:"phone,omitempty"`
	Email    string `json:"email"`
}

// PublicProfile converts a user to its listing projection
func (u *User) PublicProfile() Profile {
	return Profile{
		ID:       u.ID,
		ImageURL: u.ImageURL,
		Name:     u.Name,
		Bio:      u.Bio,
		Phone:    u.Phone,
		Email:    u.Email,
	}
}

// Identity is the authenticated caller attached to the request context
type Identity struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

// UserSource is the store contract the verifier depends on
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// TokenSink is the store contract the issuer depends on
type TokenSink interface {
	SetCurrentToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
}
