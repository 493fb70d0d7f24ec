package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rotation throttle tuning parameters.
type Config struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

// Limiter enforces a per-token rotation attempt budget using Redis
// fixed-window counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rotation [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func rotateKey(tokenHash string) string {
	return "arl:" + tokenHash
}

// CheckRotate enforces the rotation limit by incrementing the counter
// and applying the cooldown TTL. The counter is keyed on the token
// hash, never the raw value.
func (l *Limiter) CheckRotate(ctx context.Context, tokenHash string) error {
	if !l.config.Enabled {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, rotateKey(tokenHash), l.config.Cooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Reset clears the rotation counter for a token hash. Called after a
// successful rotation so the successor starts with a clean budget.
func (l *Limiter) Reset(ctx context.Context, tokenHash string) error {
	if !l.config.Enabled {
		return nil
	}

	if err := l.redis.Del(ctx, rotateKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
