package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// One round trip per decision: bump the window counter, arm the expiry on
// the first hit, and read the remaining lifetime back so the caller can
// compute Retry-After without a second call.
var fixedWindowScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisFixedWindowLimiter shares one fixed window per client key across
// every accounts-api replica, so the login and api budgets hold even
// behind a load balancer.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) *RedisFixedWindowLimiter {
	if prefix == "" {
		prefix = "accounts:rl"
	}
	return &RedisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.client == nil {
		return false, window, fmt.Errorf("redis limiter has no client")
	}
	if key == "" {
		key = "unknown"
	}

	hits, ttl, err := l.bumpWindow(ctx, l.prefix+":"+key, window)
	if err != nil {
		return false, window, err
	}
	return hits <= int64(limit), ttl, nil
}

func (l *RedisFixedWindowLimiter) bumpWindow(ctx context.Context, storeKey string, window time.Duration) (int64, time.Duration, error) {
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}

	raw, err := fixedWindowScript.Run(ctx, l.client, []string{storeKey}, windowMS).Result()
	if err != nil {
		return 0, 0, err
	}
	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, 0, fmt.Errorf("window script returned %T, want a two element reply", raw)
	}

	hits, err := replyInt(reply[0])
	if err != nil {
		return 0, 0, err
	}
	ttlMS, err := replyInt(reply[1])
	if err != nil {
		return 0, 0, err
	}
	// PTTL can report -1/-2 if the key raced its own expiry; treat that as
	// a fresh full window.
	if ttlMS <= 0 {
		ttlMS = windowMS
	}
	return hits, time.Duration(ttlMS) * time.Millisecond, nil
}

func replyInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("window script reply element is %T, want an integer", v)
	}
}
