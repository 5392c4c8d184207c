package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/bot/keyboard"
	"github.com/botmakerhq/hostbot/internal/session"
)

const welcomeText = `👋 *Welcome!* I host scripts for your Telegram bots.

Here is what I can do:
/list — show your uploaded files
/upload — upload a new script
/delete — delete one of your files
/webhook — point a bot's webhook at one of your scripts
/getwebhookinfo — show a bot's current webhook
/deletewebhook — remove a bot's webhook

Send a file as a document to upload it.`

// NewStartHandler greets the user, clears any stale workflow and shows the
// main menu.
func NewStartHandler(sessions session.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		// /start always lands the user in a clean state.
		if err := sessions.Reset(ctx, userID); err != nil {
			log.Error("failed to reset session on start", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		if kb != nil {
			return reply(c, welcomeText, kb.MainMenu())
		}

		return reply(c, welcomeText)
	}
}
