package auth

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"campus-engage/internal/common/errors"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
	"campus-engage/internal/users"
)

// ==========================
// Test helpers
// ==========================

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) Create(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, email, name, passwordHash)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) FindOrCreateOAuth(ctx context.Context, acct models.OAuthAccount) (*models.User, bool, error) {
	args := m.Called(ctx, acct)
	u, _ := args.Get(0).(*models.User)
	return u, args.Bool(1), args.Error(2)
}

func hashed(t *testing.T, password string) *string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s := string(h)
	return &s
}

func requireAuthError(t *testing.T, err error) *AuthError {
	t.Helper()
	var authErr *AuthError
	require.True(t, stderrors.As(err, &authErr), "expected AuthError, got %v", err)
	return authErr
}

// ==========================
// Credentials
// ==========================

func TestCredentialsVerifier(t *testing.T) {
	ada := &models.User{ID: "u-1", Email: "ada@njit.edu", Name: "Ada", PasswordHash: hashed(t, "correct horse")}
	oauthOnly := &models.User{ID: "u-2", Email: "grace@njit.edu", Name: "Grace"}

	tests := []struct {
		name       string
		attempt    CredentialsAttempt
		setup      func(m *mockUserStore)
		wantUserID string
		wantReason string
	}{
		{
			name:    "valid password",
			attempt: CredentialsAttempt{Email: "ada@njit.edu", Password: "correct horse"},
			setup: func(m *mockUserStore) {
				m.On("FindByEmail", mock.Anything, "ada@njit.edu").Return(ada, nil)
			},
			wantUserID: "u-1",
		},
		{
			name:       "missing password",
			attempt:    CredentialsAttempt{Email: "ada@njit.edu"},
			setup:      func(m *mockUserStore) {},
			wantReason: "Email and password are required",
		},
		{
			name:    "unknown user",
			attempt: CredentialsAttempt{Email: "nobody@njit.edu", Password: "whatever1"},
			setup: func(m *mockUserStore) {
				m.On("FindByEmail", mock.Anything, "nobody@njit.edu").Return(nil, users.ErrUserNotFound)
			},
			wantReason: reasonInvalidCredentials,
		},
		{
			name:    "oauth-only user",
			attempt: CredentialsAttempt{Email: "grace@njit.edu", Password: "whatever1"},
			setup: func(m *mockUserStore) {
				m.On("FindByEmail", mock.Anything, "grace@njit.edu").Return(oauthOnly, nil)
			},
			wantReason: reasonInvalidCredentials,
		},
		{
			name:    "wrong password",
			attempt: CredentialsAttempt{Email: "ada@njit.edu", Password: "battery staple"},
			setup: func(m *mockUserStore) {
				m.On("FindByEmail", mock.Anything, "ada@njit.edu").Return(ada, nil)
			},
			wantReason: reasonInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockUserStore{}
			tt.setup(store)
			auth := NewAuthenticator(NewCredentialsVerifier(store, logger.NewTestLogger(t)))

			id, err := auth.Verify(context.Background(), tt.attempt)
			if tt.wantReason != "" {
				authErr := requireAuthError(t, err)
				assert.Equal(t, tt.wantReason, authErr.Reason)
				assert.Equal(t, MethodCredentials, authErr.Method)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, id.UserID)
			assert.Equal(t, MethodCredentials, id.Provider)
			assert.False(t, id.IsNewUser)
			store.AssertExpectations(t)
		})
	}
}

func TestAuthenticator_UnsupportedMethod(t *testing.T) {
	auth := NewAuthenticator(NewCredentialsVerifier(&mockUserStore{}, logger.NewNoOpLogger()))

	_, err := auth.Verify(context.Background(), OAuthAttempt{Provider: MethodLinkedIn, Code: "abc"})
	authErr := requireAuthError(t, err)
	assert.Equal(t, MethodLinkedIn, authErr.Method)
	assert.False(t, auth.Supports(MethodLinkedIn))
	assert.True(t, auth.Supports(MethodCredentials))

	_, ok := auth.OAuthProvider(MethodCredentials)
	assert.False(t, ok)
}

// ==========================
// Registration
// ==========================

func TestRegistrar_Register(t *testing.T) {
	store := &mockUserStore{}
	store.On("FindByEmail", mock.Anything, "ada@njit.edu").Return(nil, users.ErrUserNotFound)
	store.On("Create", mock.Anything, "ada@njit.edu", "ada", mock.AnythingOfType("string")).
		Return(&models.User{ID: "u-1", Email: "ada@njit.edu", Name: "ada"}, nil)

	r := NewRegistrar(store, bcrypt.MinCost, logger.NewTestLogger(t))
	u, err := r.Register(context.Background(), RegisterRequest{Email: " Ada@NJIT.edu", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	hash := store.Calls[1].Arguments.String(3)
	assert.NotEqual(t, "longenough", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("longenough")))
	store.AssertExpectations(t)
}

func TestRegistrar_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		req      RegisterRequest
		setup    func(m *mockUserStore)
		wantCode errors.ErrorCode
		wantMsg  string
	}{
		{
			name:     "email without at sign",
			req:      RegisterRequest{Email: "ada.njit.edu", Password: "longenough"},
			setup:    func(m *mockUserStore) {},
			wantCode: errors.ErrCodeValidationFailed,
			wantMsg:  "Invalid email address",
		},
		{
			name:     "short password",
			req:      RegisterRequest{Email: "ada@njit.edu", Password: "short"},
			setup:    func(m *mockUserStore) {},
			wantCode: errors.ErrCodeValidationFailed,
			wantMsg:  "Password must be at least 8 characters",
		},
		{
			name: "existing email",
			req:  RegisterRequest{Email: "ada@njit.edu", Password: "longenough"},
			setup: func(m *mockUserStore) {
				m.On("FindByEmail", mock.Anything, "ada@njit.edu").Return(&models.User{ID: "u-1"}, nil)
			},
			wantCode: errors.ErrCodeDuplicateUser,
			wantMsg:  "A user with this email already exists",
		},
		{
			name: "insert race",
			req:  RegisterRequest{Email: "ada@njit.edu", Password: "longenough", Name: "Ada"},
			setup: func(m *mockUserStore) {
				m.On("FindByEmail", mock.Anything, "ada@njit.edu").Return(nil, users.ErrUserNotFound)
				m.On("Create", mock.Anything, "ada@njit.edu", "Ada", mock.Anything).Return(nil, users.ErrDuplicateEmail)
			},
			wantCode: errors.ErrCodeDuplicateUser,
			wantMsg:  "A user with this email already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockUserStore{}
			tt.setup(store)
			r := NewRegistrar(store, bcrypt.MinCost, logger.NewTestLogger(t))

			u, err := r.Register(context.Background(), tt.req)
			assert.Nil(t, u)
			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
		})
	}
}
