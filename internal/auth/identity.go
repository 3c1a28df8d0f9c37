// Package auth verifies sign-in attempts and manages server-side sessions.
package auth

import (
	"fmt"

	"campus-engage/internal/models"
)

// Method names a sign-in mechanism.
type Method = models.AuthProvider

const (
	MethodCredentials = models.ProviderCredentials
	MethodGoogle      = models.ProviderGoogle
	MethodLinkedIn    = models.ProviderLinkedIn
)

// Attempt is a sign-in attempt. Its concrete type is one of
// CredentialsAttempt or OAuthAttempt.
type Attempt interface {
	Method() Method
	attempt()
}

type CredentialsAttempt struct {
	Email    string
	Password string
}

func (CredentialsAttempt) Method() Method { return MethodCredentials }
func (CredentialsAttempt) attempt() {}

// OAuthAttempt carries the authorization code returned to the callback.
type OAuthAttempt struct {
	Provider Method
	Code     string
}

func (a OAuthAttempt) Method() Method { return a.Provider }
func (OAuthAttempt) attempt() {}

// Identity is a verified user.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Provider  Method `json:"provider"`
	IsNewUser bool   `json:"isNewUser"`
}

func identityFromUser(u *models.User, method Method, isNew bool) *Identity {
	return &Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Provider:  method,
		IsNewUser: isNew,
	}
}

// AuthError is returned when an attempt is rejected. Reason is safe to show
// to the user; Err is the underlying cause, if any.
type AuthError struct {
	Method Method
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s sign-in failed: %s: %v", e.Method, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s sign-in failed: %s", e.Method, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }
