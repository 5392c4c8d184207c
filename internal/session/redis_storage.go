package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userSessionKeyPattern  = "user:session:%d"
	pendingTokenKeyPattern = "user:pending_token:%d"
)

// RedisStorage persists user sessions and pending tokens in Redis. Records
// carry no TTL: an abandoned session persists until the user's next message
// advances or resets it.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
	}
}

// GetSession returns the stored session or ErrSessionNotFound when absent.
func (s *RedisStorage) GetSession(ctx context.Context, userID int64) (*UserSession, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get session from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var sess UserSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		s.log.Error("failed to decode user session", "user_id", userID, "error", err)
		return nil, err
	}

	return &sess, nil
}

// SetSession saves the provided session without expiration.
func (s *RedisStorage) SetSession(ctx context.Context, userID int64, sess *UserSession) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		s.log.Error("failed to encode user session", "user_id", userID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, sessionKey(userID), data, 0).Err(); err != nil {
		s.log.Error("failed to save session in redis", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// ClearSession removes the stored session for the given user.
func (s *RedisStorage) ClearSession(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		s.log.Error("failed to clear user session", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// SetPendingToken stores the in-transit bot token for the user.
func (s *RedisStorage) SetPendingToken(ctx context.Context, userID int64, token string) error {
	if err := s.client.Set(ctx, pendingTokenKey(userID), token, 0).Err(); err != nil {
		s.log.Error("failed to save pending token", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// TakePendingToken atomically reads and deletes the pending token.
func (s *RedisStorage) TakePendingToken(ctx context.Context, userID int64) (string, error) {
	token, err := s.client.GetDel(ctx, pendingTokenKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoPendingToken
		}

		s.log.Error("failed to take pending token", "user_id", userID, "error", err)
		return "", err
	}

	return token, nil
}

// DeletePendingToken discards the pending token without reading it.
func (s *RedisStorage) DeletePendingToken(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, pendingTokenKey(userID)).Err(); err != nil {
		s.log.Error("failed to delete pending token", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// Sessions scans all session keys and returns the decoded records. Records
// that fail to decode are skipped; a sweep must not fail on one bad entry.
func (s *RedisStorage) Sessions(ctx context.Context) ([]*UserSession, error) {
	var (
		result []*UserSession
		cursor uint64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, "user:session:*", 100).Result()
		if err != nil {
			s.log.Error("failed to scan session keys", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				return nil, err
			}

			var sess UserSession
			if err := json.Unmarshal([]byte(data), &sess); err != nil {
				s.log.Warn("skipping undecodable session record", "key", key, "error", err)
				continue
			}

			result = append(result, &sess)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf(userSessionKeyPattern, userID)
}

func pendingTokenKey(userID int64) string {
	return fmt.Sprintf(pendingTokenKeyPattern, userID)
}
