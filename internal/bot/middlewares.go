package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/bot/handlers"
	errors "github.com/botmakerhq/hostbot/internal/errors"
	"github.com/botmakerhq/hostbot/pkg/logger"
	"github.com/botmakerhq/hostbot/pkg/metrics"
)

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := "⚠️ Something went wrong. Please try again later."
					if errHandler != nil {
						appErr := errors.NewStorageError(fmt.Errorf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(context.Background(), appErr); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for
// handler failures. Handlers return errors; users always get a message.
func ErrorHandlingMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var appErr *errors.AppError
			if stdErrors.As(err, &appErr) && appErr != nil {
				metrics.RecordError(appErr.Code, string(appErr.Severity))
			} else {
				metrics.RecordError("unknown", string(errors.SeverityHigh))
			}

			userMsg := "❌ Something went wrong. Please try again later."
			if errHandler != nil {
				if msg, _ := errHandler.Handle(context.Background(), err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				if sendErr := c.Send(userMsg, &telebot.SendOptions{
					ParseMode: telebot.ModeMarkdown,
					ReplyTo:   c.Message(),
				}); sendErr != nil {
					log.Error("failed to deliver error message to user", slog.Any("error", sendErr))
				}
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates under a
// fresh correlation identifier.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			correlationID := logger.NewCorrelationID()

			userID := int64(0)
			if c != nil && c.Sender() != nil {
				userID = c.Sender().ID
			}

			// Free-form text can be a bot token mid-workflow; only commands
			// and attachment names are safe to log verbatim.
			action := "text"
			if c != nil {
				if cmd := normalizeCommand(c.Text()); cmd != "" {
					action = cmd
				}
				if msg := c.Message(); msg != nil && msg.Document != nil {
					action = "document:" + msg.Document.FileName
				}
			}

			log.Info("handling update",
				slog.String("correlation_id", correlationID),
				slog.Int64("user_id", userID),
				slog.String("action", action),
			)

			err := next(c)

			log.Info("handled update",
				slog.String("correlation_id", correlationID),
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}
