package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLimiterWithoutRedisAllows(t *testing.T) {
	var nilLimiter *Limiter
	userID := uuid.New()

	for _, l := range []*Limiter{New(nil), nilLimiter} {
		assert.NoError(t, l.Acquire(context.Background(), userID, "post", time.Minute))
		assert.NoError(t, l.Acquire(context.Background(), userID, "post", time.Minute))
		assert.NoError(t, l.Release(context.Background(), userID, "post"))
	}
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{Action: "comment", RetryAfter: 2500 * time.Millisecond}
	assert.Equal(t, "please wait 3 seconds before another comment", err.Error())
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("0195d3a4-0000-7000-8000-000000000001")
	assert.Equal(t, "rate_limit:user:0195d3a4-0000-7000-8000-000000000001:post", key(id, "post"))
}
