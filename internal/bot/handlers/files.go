package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/sanitize"
	"github.com/botmakerhq/hostbot/internal/session"
)

// NewListHandler replies with the user's stored files and their public URLs.
func NewListHandler(store files.Store, publicBaseURL string, maxFiles int, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		list, err := store.List(ctx, userID)
		if err != nil {
			return err
		}

		if len(list) == 0 {
			return reply(c, "📂 You have no files yet. Use /upload to add one.")
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📂 *Your files* (%d/%d)\n", len(list), maxFiles)
		fmt.Fprintf(&sb, "Base URL: `%s/%d/`\n\n", publicBaseURL, userID)
		for _, info := range list {
			fmt.Fprintf(&sb, "• `%s` — %s\n", info.Name, files.FormatBytes(info.Size, 2))
		}

		return reply(c, sb.String())
	}
}

// NewUploadPromptHandler explains how to upload a file.
func NewUploadPromptHandler(policy files.Policy) Handler {
	return func(c telebot.Context) error {
		text := fmt.Sprintf(
			"📤 Send me the script as a *document* (max %s, up to %d files).",
			files.FormatBytes(policy.MaxFileSize, 0),
			policy.MaxFiles,
		)
		if len(policy.AllowedExtensions) > 0 {
			text += fmt.Sprintf("\nAccepted extensions: `%s`.", strings.Join(policy.AllowedExtensions, "`, `"))
		}

		return reply(c, text)
	}
}

// NewDeletePromptHandler opens the delete workflow, showing what can be
// deleted. With nothing stored there is nothing to delete, so the workflow
// does not open.
func NewDeletePromptHandler(sessions session.Manager, store files.Store, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		list, err := store.List(ctx, userID)
		if err != nil {
			return err
		}

		if len(list) == 0 {
			return reply(c, "📂 You have no files to delete. Use /upload to add one.")
		}

		if err := sessions.Transition(ctx, userID, session.StateAwaitingDeleteFilename); err != nil {
			log.Error("failed to open delete workflow", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		var sb strings.Builder
		sb.WriteString("🗑 Which file should I delete? Send me the exact file name.\n\n")
		for _, info := range list {
			fmt.Fprintf(&sb, "• `%s` — %s\n", info.Name, files.FormatBytes(info.Size, 2))
		}

		return reply(c, sb.String())
	}
}

// NewDeleteFilenameHandler consumes the file name in the delete workflow.
// Whatever happens, the workflow ends here.
func NewDeleteFilenameHandler(sessions session.Manager, store files.Store, log *slog.Logger) Handler {
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
				log.Error("failed to reset session after delete", slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}()

		name := sanitize.FileName(strings.TrimSpace(c.Text()))
		if name == "" {
			return reply(c, "❌ That does not look like a file name. The operation has been cancelled.")
		}

		if err := store.Delete(ctx, userID, name); err != nil {
			return err
		}

		log.Info("file deleted", slog.Int64("user_id", userID), slog.String("file", name))

		return reply(c, fmt.Sprintf("✅ File `%s` deleted.", name))
	}
}

// NewFallbackHandler answers anything that is neither a known command nor a
// workflow step.
func NewFallbackHandler() Handler {
	return func(c telebot.Context) error {
		return reply(c, "🤔 I did not understand that. Use /start to see what I can do.")
	}
}
