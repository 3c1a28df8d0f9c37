package models

import "time"

// AuthProvider names how a user proved their identity.
type AuthProvider string

const (
	ProviderCredentials AuthProvider = "credentials"
	ProviderGoogle      AuthProvider = "google"
	ProviderLinkedIn    AuthProvider = "linkedin"
)

// User is a row of the users table. PasswordHash never leaves the server.
type User struct {
	ID            string     `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Name          string     `json:"name" db:"name"`
	Image         string     `json:"image,omitempty" db:"image"`
	PasswordHash  *string    `json:"-" db:"password_hash"`
	EmailVerified *time.Time `json:"emailVerified,omitempty" db:"email_verified"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// HasPassword reports whether the user can sign in with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// OAuthAccount links a provider identity to a user.
type OAuthAccount struct {
	Provider          AuthProvider
	ProviderAccountID string
	Email             string
	Name              string
	Image             string
	EmailVerified     bool
}
