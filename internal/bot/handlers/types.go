// Package handlers implements the bot's command and workflow-step handlers.
package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// Handler processes one incoming update.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// reply sends a Markdown-formatted answer as a reply to the user's message.
func reply(c telebot.Context, text string, extra ...interface{}) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeMarkdown,
		ReplyTo:   c.Message(),
	}

	return c.Send(text, append([]interface{}{opts}, extra...)...)
}
