package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/bot/handlers"
	"github.com/botmakerhq/hostbot/internal/idempotency"
)

// Idempotency ensures handlers execute at most once per Telegram delivery.
// Telegram retries webhook deliveries until they are acknowledged; without
// this, a slow upload could be stored twice.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractIdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			ctx := context.Background()

			_, err := manager.Execute(ctx, key, 24*time.Hour, func(execCtx context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					return nil
				}

				log.Error("idempotent handler failed", slog.String("key", key), slog.Any("error", err))
				return err
			}

			return nil
		}
	}
}

func extractIdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	msg := c.Message()
	if msg == nil || msg.ID == 0 {
		return ""
	}

	chatID := int64(0)
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}

	return idempotency.UpdateKey(chatID, msg.ID)
}
