package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "user:session_lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested workflow transition is not allowed.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionNotFound indicates that a user session record does not exist.
	ErrSessionNotFound = errors.New("user session not found")
	// ErrNoPendingToken indicates that no bot token is awaiting consumption.
	ErrNoPendingToken = errors.New("no pending token")
	// ErrSessionLocked indicates that a concurrent update already holds the user lock.
	ErrSessionLocked = errors.New("session is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe session transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Manager describes the session operations used by the command router.
type Manager interface {
	// Current returns the user's session state, defaulting to StateNone.
	Current(ctx context.Context, userID int64) (State, error)
	// Transition moves the user to a new state if the transition is allowed.
	Transition(ctx context.Context, userID int64, to State) error
	// Reset returns the user to StateNone and discards any pending token.
	Reset(ctx context.Context, userID int64) error
	// StorePendingToken saves the bot token awaiting the next workflow step.
	StorePendingToken(ctx context.Context, userID int64, token string) error
	// TakePendingToken returns and deletes the pending token.
	TakePendingToken(ctx context.Context, userID int64) (string, error)
}

// manager implements Manager on top of Storage, serializing updates for a
// given user with a Redis lock. The lock only guards against the same user's
// overlapping updates; semantics stay last-write-wins.
type manager struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewManager creates a session manager using the provided storage backend
// and an optional redis client for per-user locking.
func NewManager(storage Storage, log *slog.Logger, redisClient *redis.Client) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

// Current returns the user's session state, defaulting to StateNone.
func (m *manager) Current(ctx context.Context, userID int64) (State, error) {
	sess, err := m.storage.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return StateNone, nil
		}

		return StateNone, err
	}

	if sess == nil || sess.CurrentState == "" {
		return StateNone, nil
	}

	return sess.CurrentState, nil
}

// Transition moves the user to a new state under the per-user lock.
func (m *manager) Transition(ctx context.Context, userID int64, to State) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	current, err := m.Current(ctx, userID)
	if err != nil {
		return err
	}

	if !IsTransitionAllowed(current, to) {
		m.log.Warn("invalid session transition", "user_id", userID, "from", current, "to", to)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(to))

	return m.storage.SetSession(ctx, userID, &UserSession{
		UserID:       userID,
		CurrentState: to,
	})
}

// Reset clears the session record and discards any pending token, returning
// the user to StateNone regardless of where the workflow stopped.
func (m *manager) Reset(ctx context.Context, userID int64) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	if current, err := m.Current(ctx, userID); err == nil && current != StateNone {
		transitionRecorder(string(current), string(StateNone))
	}

	if err := m.storage.DeletePendingToken(ctx, userID); err != nil {
		m.log.Error("failed to discard pending token on reset", "user_id", userID, "error", err)
	}

	return m.storage.ClearSession(ctx, userID)
}

// StorePendingToken saves the bot token awaiting the next workflow step.
func (m *manager) StorePendingToken(ctx context.Context, userID int64, token string) error {
	return m.storage.SetPendingToken(ctx, userID, token)
}

// TakePendingToken returns and deletes the pending token.
func (m *manager) TakePendingToken(ctx context.Context, userID int64) (string, error) {
	return m.storage.TakePendingToken(ctx, userID)
}

func (m *manager) lock(ctx context.Context, userID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire user session lock", "user_id", userID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("user session lock already held", "user_id", userID)
		return ErrSessionLocked
	}

	return nil
}

func (m *manager) unlock(ctx context.Context, userID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release user session lock", "user_id", userID, "error", err)
	}
}
