package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is a mutex-guarded in-process Storage implementation, used
// for single-instance deployments without Redis and in tests. It satisfies
// the same exclusive-acquisition contract: a write for a given user is never
// interleaved with a partial read for that user.
type MemoryStorage struct {
	mu       sync.Mutex
	sessions map[int64]*UserSession
	tokens   map[int64]string
}

// NewMemoryStorage returns an empty in-memory Storage implementation.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[int64]*UserSession),
		tokens:   make(map[int64]string),
	}
}

// GetSession returns the stored session or ErrSessionNotFound when absent.
func (s *MemoryStorage) GetSession(ctx context.Context, userID int64) (*UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := *sess
	return &copied, nil
}

// SetSession saves the provided session for the user.
func (s *MemoryStorage) SetSession(ctx context.Context, userID int64, sess *UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sess
	copied.UpdatedAt = time.Now().UTC()
	s.sessions[userID] = &copied

	return nil
}

// ClearSession removes the session record for the user.
func (s *MemoryStorage) ClearSession(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// SetPendingToken stores the in-transit bot token for the user.
func (s *MemoryStorage) SetPendingToken(ctx context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[userID] = token
	return nil
}

// TakePendingToken atomically reads and deletes the pending token.
func (s *MemoryStorage) TakePendingToken(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[userID]
	if !ok {
		return "", ErrNoPendingToken
	}

	delete(s.tokens, userID)
	return token, nil
}

// DeletePendingToken discards the pending token without reading it.
func (s *MemoryStorage) DeletePendingToken(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, userID)
	return nil
}

// Sessions returns every stored session.
func (s *MemoryStorage) Sessions(ctx context.Context) ([]*UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*UserSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		copied := *sess
		result = append(result, &copied)
	}

	return result, nil
}
