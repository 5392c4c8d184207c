// Package keyboard builds the reply keyboards shown to users.
package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Builder creates the bot's reply keyboards.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// MainMenu builds the persistent command keyboard. Every button is a command,
// so pressing one goes through the same routing as typing it.
func (b *Builder) MainMenu() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	markup.Reply(
		markup.Row(markup.Text("/list"), markup.Text("/upload")),
		markup.Row(markup.Text("/delete"), markup.Text("/webhook")),
		markup.Row(markup.Text("/getwebhookinfo"), markup.Text("/deletewebhook")),
	)

	return markup
}

// RemoveKeyboard hides the reply keyboard.
func (b *Builder) RemoveKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
