// Package middleware holds telebot-level and handler-level middlewares
// shared across the bot.
package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces per-user rate limits.
// Limiter failures let traffic through; throttling is protection, not a
// correctness requirement.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		limit, window := m.rules.PerUserLimit()

		key := fmt.Sprintf("user:%d", userID)
		result, err := m.limiter.Check(context.Background(), key, limit, window)
		if err != nil && result == nil {
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if !result.Allowed {
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
			return c.Send("⏳ Slow down a little. Try again in a minute.")
		}

		return next(c)
	}
}
