package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KVStore implements domain.KVStore on top of a shared Redis instance. Rate
// counter entries are written without expiry: a stale entry is harmless once
// its window elapses, and the next hit overwrites it.
type KVStore struct {
	client *redis.Client
}

// NewKVStore creates a Redis-backed KVStore.
func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

// Get returns the value stored at key and whether it exists.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to GET %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes value at key, overwriting any previous value.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to SET %s: %w", key, err)
	}
	return nil
}

// NewClient parses addr (a redis:// URL) and verifies connectivity. On a ping
// failure the client is still returned; the error tells the caller whether the
// instance was reachable at startup.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url %q: %w", addr, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
