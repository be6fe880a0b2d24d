package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KeyValue on a Redis server.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

var (
	_ KeyValue = (*RedisKV)(nil)
	_ Backend  = (*RedisKV)(nil)
)

// RedisConfig holds connection settings for RedisKV.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key, e.g. "assistant:"
}

// NewRedisKV creates a Redis-backed key-value store. No network I/O happens until first use.
func NewRedisKV(cfg RedisConfig) *RedisKV {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 10 * time.Second,
	})
	return &RedisKV{rdb: rdb, prefix: cfg.Prefix}
}

// Get returns the raw value stored under key.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key without expiry.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Ping verifies connectivity to the Redis server.
func (r *RedisKV) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}
