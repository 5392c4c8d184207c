package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/botmakerhq/hostbot/pkg/config"
)

func TestRules_Whitelist(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{
		Enabled:   true,
		PerMinute: 5,
		Whitelist: []int64{42, 77},
	})

	assert.True(t, rules.Enabled())
	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(43))

	limit, window := rules.PerUserLimit()
	assert.Equal(t, 5, limit)
	assert.Equal(t, time.Minute, window)
}

func TestRules_DisabledWithoutBudget(t *testing.T) {
	assert.False(t, NewRules(config.RateLimitConfig{Enabled: true}).Enabled())
	assert.False(t, NewRules(config.RateLimitConfig{PerMinute: 5}).Enabled())
}

func TestMemoryLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)

	// A different user is unaffected.
	other, err := limiter.Check(ctx, "user:2", 2, time.Minute)
	assert.NoError(t, err)
	assert.True(t, other.Allowed)
}
