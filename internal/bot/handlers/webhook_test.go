package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
	"github.com/botmakerhq/hostbot/internal/session"
	"github.com/botmakerhq/hostbot/internal/webhook"
)

func TestWorkflowPromptHandler_OpensWorkflow(t *testing.T) {
	sessions := newSessions()
	h := NewWorkflowPromptHandler(sessions, session.StateAwaitingWebhookToken, "register", testLogger())

	c := textUpdate(1, "/webhook")
	require.NoError(t, h(c))

	state, err := sessions.Current(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingWebhookToken, state)
	assert.Contains(t, c.lastText(t), "register")
}

func TestTokenStepHandler_StoresTokenAndAdvances(t *testing.T) {
	sessions := newSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookToken))

	h := NewTokenStepHandler(sessions, session.StateAwaitingWebhookFilename, testLogger())

	require.NoError(t, h(textUpdate(1, "123456789:ABCdef")))

	state, err := sessions.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingWebhookFilename, state)

	token, err := sessions.TakePendingToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "123456789:ABCdef", token)
}

func TestTokenStepHandler_BlankTokenAborts(t *testing.T) {
	sessions := newSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookToken))

	h := NewTokenStepHandler(sessions, session.StateAwaitingWebhookFilename, testLogger())

	c := textUpdate(1, "   ")
	require.NoError(t, h(c))

	state, err := sessions.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateNone, state)

	_, err = sessions.TakePendingToken(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNoPendingToken)
	assert.Contains(t, c.lastText(t), "cancelled")
}

func TestFilenameStepHandler_RunsOperationAndResets(t *testing.T) {
	sessions := newSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookToken))
	require.NoError(t, sessions.StorePendingToken(ctx, 1, "tok"))
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookFilename))

	var gotToken, gotName string
	op := func(ctx context.Context, token string, userID int64, name string) (webhook.Result, error) {
		gotToken, gotName = token, name
		return webhook.Result{
			OK:  true,
			Raw: json.RawMessage(`{"ok":true,"result":true,"description":"Webhook was set"}`),
		}, nil
	}

	h := NewFilenameStepHandler(sessions, op, "✅ Webhook registered.", t.TempDir(), testLogger())

	c := textUpdate(1, "echo.php")
	require.NoError(t, h(c))

	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "echo.php", gotName)
	assert.Contains(t, c.lastText(t), "✅ Webhook registered.")

	state, err := sessions.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateNone, state)

	_, err = sessions.TakePendingToken(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNoPendingToken)
}

func TestFilenameStepHandler_OperationFailureStillResets(t *testing.T) {
	sessions := newSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookToken))
	require.NoError(t, sessions.StorePendingToken(ctx, 1, "tok"))
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookFilename))

	op := func(ctx context.Context, token string, userID int64, name string) (webhook.Result, error) {
		return webhook.Result{}, apperrors.NewNotFoundError(name)
	}

	h := NewFilenameStepHandler(sessions, op, "✅ Webhook registered.", t.TempDir(), testLogger())

	err := h(textUpdate(1, "ghost.php"))
	assert.ErrorIs(t, err, apperrors.NewNotFoundError("ghost.php"))

	state, err := sessions.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateNone, state)

	_, err = sessions.TakePendingToken(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNoPendingToken)
}

func TestFilenameStepHandler_MissingPendingTokenExpires(t *testing.T) {
	sessions := newSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookToken))
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingWebhookFilename))

	h := NewFilenameStepHandler(sessions, nil, "✅", t.TempDir(), testLogger())

	c := textUpdate(1, "echo.php")
	require.NoError(t, h(c))
	assert.Contains(t, c.lastText(t), "expired")

	state, err := sessions.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateNone, state)
}

func TestFilenameStepHandler_OversizedResponseGoesAsDocument(t *testing.T) {
	sessions := newSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingInfoToken))
	require.NoError(t, sessions.StorePendingToken(ctx, 1, "tok"))
	require.NoError(t, sessions.Transition(ctx, 1, session.StateAwaitingInfoFilename))

	huge := map[string]interface{}{
		"ok":     true,
		"result": map[string]interface{}{"url": "https://x.example.com/1/a.php", "detail": strings.Repeat("x", 5000)},
	}
	raw, err := json.Marshal(huge)
	require.NoError(t, err)

	op := func(ctx context.Context, token string, userID int64, name string) (webhook.Result, error) {
		return webhook.Result{OK: true, Raw: raw}, nil
	}

	h := NewFilenameStepHandler(sessions, op, "ℹ️ Current webhook registration:", t.TempDir(), testLogger())

	c := textUpdate(1, "a.php")
	require.NoError(t, h(c))

	require.NotEmpty(t, c.sent)
	_, isDoc := c.sent[len(c.sent)-1].(*telebot.Document)
	assert.True(t, isDoc, "expected a document, got %T", c.sent[len(c.sent)-1])
}
