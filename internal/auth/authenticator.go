package auth

import (
	"context"
	"fmt"
)

// Verifier checks attempts of a single method.
type Verifier interface {
	Method() Method
	Verify(ctx context.Context, attempt Attempt) (*Identity, error)
}

// Authenticator dispatches an attempt to the verifier registered for its
// method.
type Authenticator struct {
	verifiers map[Method]Verifier
}

func NewAuthenticator(verifiers ...Verifier) *Authenticator {
	a := &Authenticator{verifiers: make(map[Method]Verifier, len(verifiers))}
	for _, v := range verifiers {
		a.verifiers[v.Method()] = v
	}
	return a
}

// Verify returns the identity behind attempt or an *AuthError.
func (a *Authenticator) Verify(ctx context.Context, attempt Attempt) (*Identity, error) {
	if attempt == nil {
		return nil, &AuthError{Reason: "missing attempt"}
	}
	v, ok := a.verifiers[attempt.Method()]
	if !ok {
		return nil, &AuthError{
			Method: attempt.Method(),
			Reason: "unsupported sign-in method",
			Err:    fmt.Errorf("no verifier for %q", attempt.Method()),
		}
	}
	return v.Verify(ctx, attempt)
}

// Supports reports whether a verifier is registered for m.
func (a *Authenticator) Supports(m Method) bool {
	_, ok := a.verifiers[m]
	return ok
}

// OAuthProvider returns the OAuth verifier for m, if one is registered.
func (a *Authenticator) OAuthProvider(m Method) (*OAuthVerifier, bool) {
	v, ok := a.verifiers[m].(*OAuthVerifier)
	return v, ok
}
