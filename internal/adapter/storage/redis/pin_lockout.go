package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PinLockout implements ports.PinLockout using a Redis failure counter.
// A subject locks after maxFailures consecutive failed PIN attempts and
// unlocks when the counter's TTL lapses or a successful attempt resets it.
type PinLockout struct {
	client      *goredis.Client
	prefix      string
	maxFailures int64
	window      time.Duration
}

// NewPinLockout creates a new Redis-backed PIN lockout tracker.
func NewPinLockout(client *goredis.Client, maxFailures int64, window time.Duration) *PinLockout {
	return &PinLockout{
		client:      client,
		prefix:      "pinlock:",
		maxFailures: maxFailures,
		window:      window,
	}
}

// Locked reports whether the subject has exhausted its PIN attempts.
func (l *PinLockout) Locked(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.prefix+key).Int64()
	if err != nil {
		if err == goredis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis pin lockout get: %w", err)
	}
	return count >= l.maxFailures, nil
}

// RecordFailure increments the failure counter. The window TTL starts on the
// first failure and is not extended by later ones, so a lockout always clears
// a fixed time after the first bad attempt.
func (l *PinLockout) RecordFailure(ctx context.Context, key string) error {
	redisKey := l.prefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("redis pin lockout incr: %w", err)
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}
	return nil
}

// Reset clears the failure counter after a successful PIN check.
func (l *PinLockout) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis pin lockout reset: %w", err)
	}
	return nil
}
