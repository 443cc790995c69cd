package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T) (*RedisFixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisFixedWindowLimiter(client, "rl-test"), mr
}

func TestRedisFixedWindowLimiter(t *testing.T) {
	t.Run("allows up to limit then rejects", func(t *testing.T) {
		limiter, _ := newRedisLimiter(t)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			allowed, _, err := limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
			if err != nil {
				t.Fatalf("attempt %d: %v", i+1, err)
			}
			if !allowed {
				t.Fatalf("attempt %d should be allowed", i+1)
			}
		}
		allowed, retryAfter, err := limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if allowed {
			t.Fatal("fourth attempt should be rejected")
		}
		if retryAfter <= 0 || retryAfter > time.Minute {
			t.Fatalf("unexpected retry after: %v", retryAfter)
		}
	})

	t.Run("keys are prefixed and independent", func(t *testing.T) {
		limiter, mr := newRedisLimiter(t)
		ctx := context.Background()
		if allowed, _, _ := limiter.Allow(ctx, "10.0.0.1", 1, time.Minute); !allowed {
			t.Fatal("first key should be allowed")
		}
		if allowed, _, _ := limiter.Allow(ctx, "10.0.0.2", 1, time.Minute); !allowed {
			t.Fatal("second key must have its own counter")
		}
		if !mr.Exists("rl-test:10.0.0.1") {
			t.Fatal("expected prefixed key in redis")
		}
	})

	t.Run("window expiry resets counter", func(t *testing.T) {
		limiter, mr := newRedisLimiter(t)
		ctx := context.Background()
		window := time.Second
		if allowed, _, _ := limiter.Allow(ctx, "10.0.0.1", 1, window); !allowed {
			t.Fatal("first attempt should be allowed")
		}
		if allowed, _, _ := limiter.Allow(ctx, "10.0.0.1", 1, window); allowed {
			t.Fatal("second attempt inside window should be rejected")
		}
		mr.FastForward(2 * window)
		if allowed, _, _ := limiter.Allow(ctx, "10.0.0.1", 1, window); !allowed {
			t.Fatal("attempt after expiry should be allowed")
		}
	})

	t.Run("empty key falls back to unknown", func(t *testing.T) {
		limiter, mr := newRedisLimiter(t)
		if allowed, _, err := limiter.Allow(context.Background(), "", 1, time.Minute); err != nil || !allowed {
			t.Fatalf("allowed=%v err=%v", allowed, err)
		}
		if !mr.Exists("rl-test:unknown") {
			t.Fatal("expected fallback key in redis")
		}
	})

	t.Run("nil client errors", func(t *testing.T) {
		limiter := NewRedisFixedWindowLimiter(nil, "")
		allowed, _, err := limiter.Allow(context.Background(), "10.0.0.1", 1, time.Minute)
		if err == nil {
			t.Fatal("expected error for nil client")
		}
		if allowed {
			t.Fatal("nil client must not allow")
		}
	})

	t.Run("unreachable backend surfaces error", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		limiter := NewRedisFixedWindowLimiter(client, "rl-test")
		mr.Close()
		if _, _, err := limiter.Allow(context.Background(), "10.0.0.1", 1, time.Minute); err == nil {
			t.Fatal("expected error when redis is down")
		}
	})
}

func TestReplyInt(t *testing.T) {
	if n, err := replyInt(int64(7)); err != nil || n != 7 {
		t.Fatalf("int64: n=%d err=%v", n, err)
	}
	if n, err := replyInt(uint64(7)); err != nil || n != 7 {
		t.Fatalf("uint64: n=%d err=%v", n, err)
	}
	if n, err := replyInt(int(7)); err != nil || n != 7 {
		t.Fatalf("int: n=%d err=%v", n, err)
	}
	if _, err := replyInt("7"); err == nil {
		t.Fatal("string should error")
	}
	if _, err := replyInt(3.14); err == nil {
		t.Fatal("float should error")
	}
}
