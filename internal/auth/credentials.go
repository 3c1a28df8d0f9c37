package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "campus-engage/internal/common/errors"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
	"campus-engage/internal/users"
)

const (
	MinPasswordLength = 8

	reasonInvalidCredentials = "Invalid email or password"
)

// UserStore is the user persistence used by the verifiers.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	FindOrCreateOAuth(ctx context.Context, acct models.OAuthAccount) (*models.User, bool, error)
}

// CredentialsVerifier checks an email and password against the stored
// bcrypt hash.
type CredentialsVerifier struct {
	users  UserStore
	logger logger.Logger
}

func NewCredentialsVerifier(store UserStore, log logger.Logger) *CredentialsVerifier {
	return &CredentialsVerifier{
		users:  store,
		logger: log.WithFields(map[string]interface{}{"component": "auth-credentials"}),
	}
}

func (v *CredentialsVerifier) Method() Method { return MethodCredentials }

// Verify rejects unknown users, users without a password and wrong
// passwords with the same reason.
func (v *CredentialsVerifier) Verify(ctx context.Context, attempt Attempt) (*Identity, error) {
	ca, ok := attempt.(CredentialsAttempt)
	if !ok {
		return nil, &AuthError{Method: MethodCredentials, Reason: "unexpected attempt type"}
	}
	if strings.TrimSpace(ca.Email) == "" || ca.Password == "" {
		return nil, &AuthError{Method: MethodCredentials, Reason: "Email and password are required"}
	}

	u, err := v.users.FindByEmail(ctx, ca.Email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, &AuthError{Method: MethodCredentials, Reason: reasonInvalidCredentials}
	}
	if err != nil {
		return nil, &AuthError{Method: MethodCredentials, Reason: "user lookup failed", Err: err}
	}
	if !u.HasPassword() {
		v.logger.Info("credentials sign-in for oauth-only user", map[string]interface{}{"userId": u.ID})
		return nil, &AuthError{Method: MethodCredentials, Reason: reasonInvalidCredentials}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(ca.Password)); err != nil {
		return nil, &AuthError{Method: MethodCredentials, Reason: reasonInvalidCredentials}
	}

	return identityFromUser(u, MethodCredentials, false), nil
}

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Registrar creates credential users.
type Registrar struct {
	users      UserStore
	bcryptCost int
	logger     logger.Logger
}

func NewRegistrar(store UserStore, bcryptCost int, log logger.Logger) *Registrar {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Registrar{
		users:      store,
		bcryptCost: bcryptCost,
		logger:     log.WithFields(map[string]interface{}{"component": "auth-register"}),
	}
}

// Register validates req, hashes the password and stores the user. The
// name defaults to the local part of the email.
func (r *Registrar) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := users.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("Invalid email address", "")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "")
	}

	_, err := r.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.NewDuplicateUserError(email)
	case !errors.Is(err, users.ErrUserNotFound):
		return nil, apperrors.NewQueryExecutionFailedError("find_user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), r.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	u, err := r.users.Create(ctx, email, name, string(hash))
	if errors.Is(err, users.ErrDuplicateEmail) {
		return nil, apperrors.NewDuplicateUserError(email)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("user registered", map[string]interface{}{"userId": u.ID})
	return u, nil
}
