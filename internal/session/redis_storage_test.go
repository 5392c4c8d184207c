package session

import (
	"context"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisStorage_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger())

	ctx := context.Background()
	sess := &UserSession{
		UserID:       123,
		CurrentState: StateAwaitingWebhookToken,
	}

	require.NoError(t, storage.SetSession(ctx, sess.UserID, sess))

	result, err := storage.GetSession(ctx, sess.UserID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, sess.UserID, result.UserID)
	assert.Equal(t, sess.CurrentState, result.CurrentState)
	assert.False(t, result.UpdatedAt.IsZero())
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger())

	sess, err := storage.GetSession(context.Background(), 999)
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_ClearSession(t *testing.T) {
	client := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger())

	ctx := context.Background()
	require.NoError(t, storage.SetSession(ctx, 456, &UserSession{
		UserID:       456,
		CurrentState: StateAwaitingDeleteFilename,
	}))

	require.NoError(t, storage.ClearSession(ctx, 456))

	sess, err := storage.GetSession(ctx, 456)
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_PendingTokenReadOnce(t *testing.T) {
	client := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger())

	ctx := context.Background()
	require.NoError(t, storage.SetPendingToken(ctx, 7, "123456789:ABCdef"))

	token, err := storage.TakePendingToken(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "123456789:ABCdef", token)

	// Second take must fail: the slot is read-once.
	_, err = storage.TakePendingToken(ctx, 7)
	assert.ErrorIs(t, err, ErrNoPendingToken)
}

func TestRedisStorage_Sessions(t *testing.T) {
	client := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger())

	ctx := context.Background()
	require.NoError(t, storage.SetSession(ctx, 1, &UserSession{UserID: 1, CurrentState: StateAwaitingWebhookToken}))
	require.NoError(t, storage.SetSession(ctx, 2, &UserSession{UserID: 2, CurrentState: StateAwaitingDeleteFilename}))
	require.NoError(t, storage.SetPendingToken(ctx, 1, "tok"))

	sessions, err := storage.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestRedisStorage_DeletePendingToken(t *testing.T) {
	client := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger())

	ctx := context.Background()
	require.NoError(t, storage.SetPendingToken(ctx, 8, "tok"))
	require.NoError(t, storage.DeletePendingToken(ctx, 8))

	_, err := storage.TakePendingToken(ctx, 8)
	assert.ErrorIs(t, err, ErrNoPendingToken)
}
