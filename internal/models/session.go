package models

import "time"

// Session is the server-side record behind the session cookie.
type Session struct {
	Token     string       `json:"token"`
	UserID    string       `json:"userId"`
	Email     string       `json:"email"`
	Name      string       `json:"name,omitempty"`
	Image     string       `json:"image,omitempty"`
	Provider  AuthProvider `json:"provider"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// IsExpired checks if session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
