package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// newTestRedis connects to REDIS_ADDR under a unique key prefix and removes
// the prefixed keys when the test ends.
func newTestRedis(t *testing.T) (*RedisKV, string) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	prefix := "test:" + uuid.NewString() + ":"
	kv := NewRedisKV(RedisConfig{Addr: addr, Prefix: prefix})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kv.Ping(ctx); err != nil {
		t.Skipf("redis unreachable at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		keys, err := kv.rdb.Keys(ctx, prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			kv.rdb.Del(ctx, keys...)
		}
		_ = kv.Close()
	})
	return kv, prefix
}

func TestRedisKV_MissingKeyIsNotFound(t *testing.T) {
	t.Parallel()

	kv, _ := newTestRedis(t)
	_, err := kv.Get(context.Background(), "apiKey")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, redis.Nil) {
		t.Fatal("redis.Nil leaked to caller")
	}
}

func TestRedisKV_SetGetUnderPrefix(t *testing.T) {
	t.Parallel()

	kv, prefix := newTestRedis(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "apiKey", []byte("k1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "apiKey", []byte("k2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := kv.Get(ctx, "apiKey")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "k2" {
		t.Fatalf("got %q, want k2", got)
	}

	raw, err := kv.rdb.Get(ctx, prefix+"apiKey").Result()
	if err != nil {
		t.Fatalf("raw get of prefixed key: %v", err)
	}
	if raw != "k2" {
		t.Fatalf("raw = %q, want k2", raw)
	}
}

func TestRedisKV_PrefixesIsolate(t *testing.T) {
	t.Parallel()

	a, _ := newTestRedis(t)
	b, _ := newTestRedis(t)
	ctx := context.Background()

	if err := a.Set(ctx, "problem:two-sum", []byte("a")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := b.Get(ctx, "problem:two-sum"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across prefixes, got %v", err)
	}
}

func TestRedisKV_ProblemBlobRoundTrip(t *testing.T) {
	t.Parallel()

	kv, _ := newTestRedis(t)
	ctx := context.Background()

	if _, err := LoadProblem(ctx, kv, "two-sum"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SaveProblem(ctx, kv, "two-sum", domain.ProblemData{Code: "class Solution {}"}); err != nil {
		t.Fatalf("SaveProblem: %v", err)
	}
	got, err := LoadProblem(ctx, kv, "two-sum")
	if err != nil {
		t.Fatalf("LoadProblem: %v", err)
	}
	if got.Code != "class Solution {}" {
		t.Fatalf("got %+v", got)
	}
}
