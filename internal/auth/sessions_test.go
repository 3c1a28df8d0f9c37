package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-engage/internal/common/logger"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, time.Hour, logger.NewTestLogger(t)), mr
}

func testIdentity() *Identity {
	return &Identity{UserID: "u-1", Email: "ada@njit.edu", Name: "Ada", Provider: MethodCredentials}
}

func TestSessionStore_Lifecycle(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, time.Hour, sess.ExpiresAt.Sub(sess.CreatedAt))

	assert.True(t, mr.Exists("session:"+sess.Token))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.Token))
	members, err := mr.Members("user_sessions:u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{sess.Token}, members)

	loaded, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@njit.edu", loaded.Email)
	assert.Equal(t, MethodCredentials, loaded.Provider)

	require.NoError(t, store.Delete(ctx, sess.Token))
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, sess.Token))
}

func TestSessionStore_ExpiredSessionIsIgnored(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, testIdentity())
	require.NoError(t, err)

	store.now = func() time.Time { return sess.ExpiresAt.Add(time.Second) }
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_DeleteAll(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, testIdentity())
	require.NoError(t, err)
	second, err := store.Create(ctx, testIdentity())
	require.NoError(t, err)

	n, err := store.DeleteAll(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("session:"+first.Token))
	assert.False(t, mr.Exists("session:"+second.Token))
	assert.False(t, mr.Exists("user_sessions:u-1"))

	n, err = store.DeleteAll(ctx, "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionStore_OAuthState(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	state, err := store.SaveState(ctx, OAuthState{Provider: MethodGoogle, CallbackURL: "/dashboard"})
	require.NoError(t, err)
	assert.Equal(t, OAuthStateTTL, mr.TTL("oauth_state:"+state))

	st, err := store.ConsumeState(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, MethodGoogle, st.Provider)
	assert.Equal(t, "/dashboard", st.CallbackURL)

	_, err = store.ConsumeState(ctx, state)
	assert.ErrorIs(t, err, ErrStateNotFound)

	state, err = store.SaveState(ctx, OAuthState{Provider: MethodGoogle})
	require.NoError(t, err)
	mr.FastForward(OAuthStateTTL + time.Second)
	_, err = store.ConsumeState(ctx, state)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestSessionStore_RedisFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewSessionStore(client, 0, logger.NewTestLogger(t))
	assert.Equal(t, DefaultSessionMaxAge, store.MaxAge())

	mock.ExpectGet("session:tok").SetErr(assert.AnError)

	_, err := store.Get(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
