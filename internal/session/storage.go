// Package session manages per-user workflow state and the pending bot token
// held between workflow steps.
package session

import "context"

// Storage defines the persistence contract for user sessions. The pending
// token is a separate durable slot: write-once, read-once via TakePendingToken,
// and deleted unconditionally on workflow abort.
type Storage interface {
	// GetSession returns the stored session or ErrSessionNotFound when absent.
	GetSession(ctx context.Context, userID int64) (*UserSession, error)
	// SetSession saves the provided session for the user.
	SetSession(ctx context.Context, userID int64, sess *UserSession) error
	// ClearSession removes the session record for the user.
	ClearSession(ctx context.Context, userID int64) error
	// SetPendingToken stores the bot token awaiting the next workflow step.
	SetPendingToken(ctx context.Context, userID int64, token string) error
	// TakePendingToken returns the stored token and removes it in one step,
	// or ErrNoPendingToken when absent.
	TakePendingToken(ctx context.Context, userID int64) (string, error)
	// DeletePendingToken discards a pending token without reading it.
	DeletePendingToken(ctx context.Context, userID int64) error
	// Sessions returns every stored session, for observability sweeps.
	Sessions(ctx context.Context) ([]*UserSession, error)
}
