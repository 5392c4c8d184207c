package session

import "time"

// State identifies which multi-step workflow, if any, a user is mid-way
// through. Exactly one value exists per user; StateNone is both the initial
// state and the terminal state every workflow returns to, success or failure.
type State string

const (
	StateNone State = "none"
	// StateAwaitingWebhookToken waits for the bot token of the /webhook workflow.
	StateAwaitingWebhookToken State = "awaiting_webhook_token"
	// StateAwaitingWebhookFilename waits for the script filename of the /webhook workflow.
	StateAwaitingWebhookFilename State = "awaiting_webhook_filename"
	// StateAwaitingInfoToken waits for the bot token of the /getwebhookinfo workflow.
	StateAwaitingInfoToken State = "awaiting_getinfo_token"
	// StateAwaitingInfoFilename waits for the script filename of the /getwebhookinfo workflow.
	StateAwaitingInfoFilename State = "awaiting_getinfo_filename"
	// StateAwaitingDeleteHookToken waits for the bot token of the /deletewebhook workflow.
	StateAwaitingDeleteHookToken State = "awaiting_deletehook_token"
	// StateAwaitingDeleteHookFilename waits for the script filename of the /deletewebhook workflow.
	StateAwaitingDeleteHookFilename State = "awaiting_deletehook_filename"
	// StateAwaitingDeleteFilename waits for the filename of the /delete workflow.
	StateAwaitingDeleteFilename State = "awaiting_delete_filename"
)

// All enumerates every session state, for exhaustive metric tracking.
func All() []State {
	return []State{
		StateNone,
		StateAwaitingWebhookToken,
		StateAwaitingWebhookFilename,
		StateAwaitingInfoToken,
		StateAwaitingInfoFilename,
		StateAwaitingDeleteHookToken,
		StateAwaitingDeleteHookFilename,
		StateAwaitingDeleteFilename,
	}
}

// UserSession is the persisted session record for one user.
type UserSession struct {
	UserID       int64     `json:"user_id"`
	CurrentState State     `json:"current_state"`
	UpdatedAt    time.Time `json:"updated_at"`
}
