package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Atomic INCR + PEXPIRE so the first request in a window sets the expiry and
// concurrent requests cannot race the TTL.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisFixedWindowLimiter counts requests per key in Redis so limits hold
// across replicas.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) *RedisFixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.client == nil {
		return false, window, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}

	raw, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, windowMS).Result()
	if err != nil {
		return false, window, err
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return false, window, fmt.Errorf("unexpected redis script response %T", raw)
	}
	count, err := redisInt64(values[0])
	if err != nil {
		return false, window, err
	}
	ttlMS, err := redisInt64(values[1])
	if err != nil {
		return false, window, err
	}
	if ttlMS <= 0 {
		ttlMS = windowMS
	}
	return count <= int64(limit), time.Duration(ttlMS) * time.Millisecond, nil
}

func redisInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
