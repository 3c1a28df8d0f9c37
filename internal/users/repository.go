// Package users persists accounts for credential and OAuth sign-in.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
)

var (
	ErrUserNotFound   = errors.New("USER_NOT_FOUND")
	ErrDuplicateEmail = errors.New("DUPLICATE_EMAIL")
)

const uniqueViolation = "23505"

const userColumns = `u.id, u.email, u.name, u.image, u.password_hash, u.email_verified, u.created_at, u.updated_at`

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Repository struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "users"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail trims and lower-cases an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne(ctx, r.db, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, NormalizeEmail(email))
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return findOne(ctx, r.db, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

// Create inserts a credentials user. passwordHash must already be hashed.
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	now := r.now()
	u := &models.User{
		ID:        uuid.New().String(),
		Email:     NormalizeEmail(email),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if passwordHash != "" {
		u.PasswordHash = &passwordHash
	}

	if err := insertUser(ctx, r.db, u); err != nil {
		return nil, err
	}

	r.logger.Info("user created", map[string]interface{}{
		"userId":   u.ID,
		"provider": models.ProviderCredentials,
	})
	return u, nil
}

// FindOrCreateOAuth resolves a provider identity to a user. A known account
// link wins; otherwise a user with the same email is linked; otherwise a new
// user is created. The bool reports whether the user was created.
func (r *Repository) FindOrCreateOAuth(ctx context.Context, acct models.OAuthAccount) (*models.User, bool, error) {
	if acct.ProviderAccountID == "" {
		return nil, false, fmt.Errorf("%s account id is required", acct.Provider)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	u, err := findOne(ctx, tx, `SELECT `+userColumns+`
		FROM accounts a JOIN users u ON u.id = a.user_id
		WHERE a.provider = $1 AND a.provider_account_id = $2`,
		string(acct.Provider), acct.ProviderAccountID)
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return u, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, err
	}

	created := false
	u, err = findOne(ctx, tx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, NormalizeEmail(acct.Email))
	switch {
	case errors.Is(err, ErrUserNotFound):
		now := r.now()
		u = &models.User{
			ID:        uuid.New().String(),
			Email:     NormalizeEmail(acct.Email),
			Name:      acct.Name,
			Image:     acct.Image,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if acct.EmailVerified {
			u.EmailVerified = &now
		}
		if err := insertUser(ctx, tx, u); err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (user_id, provider, provider_account_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_account_id) DO NOTHING`,
		u.ID, string(acct.Provider), acct.ProviderAccountID); err != nil {
		return nil, false, fmt.Errorf("link account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("oauth account linked", map[string]interface{}{
		"userId":   u.ID,
		"provider": acct.Provider,
		"created":  created,
	})
	return u, created, nil
}

func findOne(ctx context.Context, q queryer, query string, args ...interface{}) (*models.User, error) {
	var (
		u     models.User
		hash  sql.NullString
		verif sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.Name, &u.Image, &hash, &verif, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	if verif.Valid {
		u.EmailVerified = &verif.Time
	}
	return &u, nil
}

func insertUser(ctx context.Context, q queryer, u *models.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, email, name, image, password_hash, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		u.ID, u.Email, u.Name, u.Image, u.PasswordHash, u.EmailVerified, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
