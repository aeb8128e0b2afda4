// Package limiter provides a fixed-window counter for throttling repeated
// operations per key, such as second-factor verification attempts per user.
package limiter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key inside a rolling window and reports when the
// allowance is exhausted.
type Limiter interface {
	// Allow records one hit for key and reports whether the hit is within
	// the allowance. The first hit of a window starts the window clock.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the counter for key, typically after a successful attempt.
	Reset(ctx context.Context, key string) error
}

// Redis implements Limiter backed by a shared Redis instance, so the
// allowance holds across replicas.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis creates a redis-backed limiter allowing limit hits per window.
func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	if limit <= 0 {
		limit = 10
	}

	if window <= 0 {
		window = time.Minute
	}

	return &Redis{
		client: client,
		prefix: "limiter:",
		limit:  int64(limit),
		window: window,
	}
}

// Allow records one hit for key and reports whether it is within the allowance.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	fk := r.prefix + key

	count, err := r.client.Incr(ctx, fk).Result()
	if err != nil {
		return false, err
	}

	// Only the hit that opens the window sets the expiry; later hits in the
	// same window must not push it out.
	if count == 1 {
		if err := r.client.Expire(ctx, fk, r.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= r.limit, nil
}

// Reset clears the counter for key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// AttemptKey builds a limiter key for a numeric subject ID.
func AttemptKey(scope string, id int64) string {
	return scope + ":" + strconv.FormatInt(id, 10)
}
