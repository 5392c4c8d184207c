package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/session"
	"github.com/botmakerhq/hostbot/internal/webhook"
)

// Telegram rejects messages above 4096 characters; anything close to that is
// delivered as a document instead.
const maxInlineResponse = 4000

// WebhookOperation executes one webhook-management call for a stored file.
type WebhookOperation func(ctx context.Context, token string, userID int64, name string) (webhook.Result, error)

// NewWorkflowPromptHandler opens a webhook workflow: transition to the
// token-awaiting state and ask for the bot token.
func NewWorkflowPromptHandler(sessions session.Manager, tokenState session.State, verb string, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		if err := sessions.Transition(ctx, userID, tokenState); err != nil {
			log.Error("failed to open webhook workflow",
				slog.Int64("user_id", userID),
				slog.String("workflow", string(tokenState)),
				slog.Any("error", err),
			)
			return err
		}

		return reply(c, fmt.Sprintf("🔑 Send me the API token of the bot whose webhook you want to %s.", verb))
	}
}

// NewTokenStepHandler consumes the bot token in the middle of a workflow.
// A blank token aborts the whole workflow.
func NewTokenStepHandler(sessions session.Manager, filenameState session.State, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		token := strings.TrimSpace(c.Text())
		if token == "" {
			if err := sessions.Reset(ctx, userID); err != nil {
				log.Error("failed to reset session", slog.Int64("user_id", userID), slog.Any("error", err))
			}

			return reply(c, "❌ That does not look like a bot token. The operation has been cancelled.")
		}

		if err := sessions.StorePendingToken(ctx, userID, token); err != nil {
			resetErr := sessions.Reset(ctx, userID)
			if resetErr != nil {
				log.Error("failed to reset session", slog.Int64("user_id", userID), slog.Any("error", resetErr))
			}

			return err
		}

		if err := sessions.Transition(ctx, userID, filenameState); err != nil {
			// The stored token must not outlive a broken workflow.
			if resetErr := sessions.Reset(ctx, userID); resetErr != nil {
				log.Error("failed to reset session", slog.Int64("user_id", userID), slog.Any("error", resetErr))
			}

			return err
		}

		return reply(c, "📄 Got it. Now send the name of the stored file this operation refers to.")
	}
}

// NewFilenameStepHandler finishes a webhook workflow: consume the pending
// token, run the operation against the named file and echo the API response.
// The workflow always ends here, success or not.
func NewFilenameStepHandler(sessions session.Manager, op WebhookOperation, successHeader, tempDir string, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		defer func() {
			if err := sessions.Reset(ctx, userID); err != nil {
				log.Error("failed to reset session after workflow", slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}()

		token, err := sessions.TakePendingToken(ctx, userID)
		if err != nil {
			log.Warn("workflow reached filename step without a pending token",
				slog.Int64("user_id", userID),
				slog.Any("error", err),
			)

			return reply(c, "❌ This operation has expired. Please start again.")
		}

		name := strings.TrimSpace(c.Text())
		if name == "" {
			return reply(c, "❌ That does not look like a file name. The operation has been cancelled.")
		}

		result, err := op(ctx, token, userID, name)
		if err != nil {
			return err
		}

		header := successHeader
		if !result.OK {
			header = "⚠️ The Telegram API replied with an error."
		}

		return sendResult(c, header, result, tempDir, log)
	}
}

// sendResult echoes the API response. Oversized responses go out as a
// short-lived JSON document instead of a message.
func sendResult(c telebot.Context, header string, result webhook.Result, tempDir string, log *slog.Logger) error {
	pretty := result.Pretty()

	if len(header)+len(pretty) <= maxInlineResponse {
		return reply(c, fmt.Sprintf("%s\n```\n%s\n```", header, pretty))
	}

	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(tempDir, uuid.NewString()+".json")
	if err := os.WriteFile(path, []byte(pretty), 0o600); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn("failed to remove temporary response file", slog.String("path", path), slog.Any("error", err))
		}
	}()

	doc := &telebot.Document{
		File:     telebot.FromDisk(path),
		FileName: "response.json",
		Caption:  header,
	}

	return c.Send(doc, &telebot.SendOptions{ReplyTo: c.Message()})
}
