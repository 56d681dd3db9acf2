package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter enforces the per-recipient delivery cooldown. It is keyed by
// (recipient, event kind) so a burst of condition updates does not drown
// out an unrelated cancellation notice.
type Limiter interface {
	Allow(ctx context.Context, recipient uuid.UUID, kind string) bool
}

type RedisLimiter struct {
	client *redis.Client
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, recipient uuid.UUID, kind string) bool {
	key := fmt.Sprintf("notify:cooldown:%s:%s", recipient, kind)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true // fail open
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	return count == 1
}
