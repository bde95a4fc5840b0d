package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the window counter unless it is already at the
// limit. Doing the check and increment in one script keeps concurrent
// dispatchers from overshooting the counter.
var allowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RedisLimiter shares the per-endpoint window across dispatcher processes.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	windowLen   time.Duration
}

func NewRedisLimiter(client *redis.Client, maxRequests int, windowLen time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		windowLen:   windowLen,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := allowScript.Run(ctx, l.client, []string{key},
		l.maxRequests, l.windowLen.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return res == 1, nil
}
