package ratelimit

import (
	"time"

	"github.com/botmakerhq/hostbot/pkg/config"
)

// Rules evaluates the configured per-user throttling policy. Every incoming
// update counts against one per-user budget; whitelisted users bypass it.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Enabled reports whether throttling is active at all.
func (r *Rules) Enabled() bool {
	return r.config.Enabled && r.config.PerMinute > 0
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	for _, id := range r.config.Whitelist {
		if id == userID {
			return true
		}
	}

	return false
}

// PerUserLimit returns the per-user budget and its sliding window.
func (r *Rules) PerUserLimit() (int, time.Duration) {
	return r.config.PerMinute, time.Minute
}
