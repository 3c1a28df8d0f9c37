package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
)

var (
	ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")
	ErrStateNotFound   = errors.New("OAUTH_STATE_NOT_FOUND")
)

const (
	sessionKeyPrefix     = "session:"
	userSessionsPrefix   = "user_sessions:"
	oauthStateKeyPrefix  = "oauth_state:"
	DefaultSessionMaxAge = 30 * 24 * time.Hour
	OAuthStateTTL        = 10 * time.Minute
)

// OAuthState is what a pending OAuth redirect remembers until its callback.
type OAuthState struct {
	Provider    Method `json:"provider"`
	CallbackURL string `json:"callbackUrl"`
}

// SessionStore keeps sessions and pending OAuth states in Redis.
type SessionStore struct {
	client *redis.Client
	maxAge time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewSessionStore(client *redis.Client, maxAge time.Duration, log logger.Logger) *SessionStore {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &SessionStore{
		client: client,
		maxAge: maxAge,
		logger: log.WithFields(map[string]interface{}{"component": "sessions"}),
		now:    time.Now,
	}
}

func (s *SessionStore) MaxAge() time.Duration { return s.maxAge }

// Create opens a session for id.
func (s *SessionStore) Create(ctx context.Context, id *Identity) (*models.Session, error) {
	now := s.now().UTC()
	sess := &models.Session{
		Token:     uuid.New().String(),
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Image:     id.Image,
		Provider:  id.Provider,
		CreatedAt: now,
		ExpiresAt: now.Add(s.maxAge),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.Token, data, s.maxAge)
	pipe.SAdd(ctx, userSessionsPrefix+sess.UserID, sess.Token)
	pipe.Expire(ctx, userSessionsPrefix+sess.UserID, s.maxAge)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("session created", map[string]interface{}{
		"userId":   sess.UserID,
		"provider": sess.Provider,
	})
	return sess, nil
}

// Get loads a live session.
func (s *SessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.IsExpired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Delete drops one session. Unknown tokens are not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	sess, err := s.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+token)
	pipe.SRem(ctx, userSessionsPrefix+sess.UserID, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("session invalidated", map[string]interface{}{"userId": sess.UserID})
	return nil
}

// DeleteAll drops every session of userID and returns how many there were.
func (s *SessionStore) DeleteAll(ctx context.Context, userID string) (int, error) {
	setKey := userSessionsPrefix + userID
	tokens, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to find sessions: %w", err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionKeyPrefix+t)
	}
	keys = append(keys, setKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	s.logger.Info("all sessions invalidated", map[string]interface{}{
		"userId": userID,
		"count":  len(tokens),
	})
	return len(tokens), nil
}

// SaveState records a pending OAuth redirect under a fresh state value.
func (s *SessionStore) SaveState(ctx context.Context, st OAuthState) (string, error) {
	state := uuid.New().String()
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, oauthStateKeyPrefix+state, data, OAuthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

// ConsumeState returns and deletes a pending OAuth state. Each state can be
// consumed once.
func (s *SessionStore) ConsumeState(ctx context.Context, state string) (*OAuthState, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}
	data, err := s.client.GetDel(ctx, oauthStateKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load oauth state: %w", err)
	}

	var st OAuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return &st, nil
}
