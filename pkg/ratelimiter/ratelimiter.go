// Package ratelimiter enforces per-user write cooldowns with Redis keys.
// Without a Redis client every action is allowed.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError tells the caller how long to wait.
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before another %s", int(e.RetryAfter.Seconds())+1, e.Action)
}

type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// Acquire takes the cooldown for action. It returns a *RateLimitError when
// the user is still cooling down.
func (l *Limiter) Acquire(ctx context.Context, userID uuid.UUID, action string, cooldown time.Duration) error {
	if l == nil || l.rdb == nil || cooldown <= 0 {
		return nil
	}

	wasSet, err := l.rdb.SetNX(ctx, key(userID, action), "locked", cooldown).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := l.rdb.TTL(ctx, key(userID, action)).Result()
	if err != nil || ttl < 0 {
		ttl = cooldown
	}
	return &RateLimitError{Action: action, RetryAfter: ttl}
}

// Release drops the cooldown, used when the guarded write failed.
func (l *Limiter) Release(ctx context.Context, userID uuid.UUID, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(userID, action)).Err()
}
