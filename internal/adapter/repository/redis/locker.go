package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

const (
	lockKeyPrefix = "lock:"

	// lockTTL bounds how long a crashed holder can keep a lock stuck.
	lockTTL = 30 * time.Second

	retryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token, so a lock
// that expired and was re-acquired by another process is never released by
// the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements domain.Locker with Redis SET NX PX locks, giving mutual
// exclusion across every gateway process sharing the store.
type Locker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLocker creates a Redis-backed Locker.
func NewLocker(client *redis.Client, logger *slog.Logger) *Locker {
	return &Locker{
		client: client,
		logger: logger.With("component", "redis_locker"),
	}
}

// Acquire polls for the named lock until it is held or wait elapses.
func (l *Locker) Acquire(ctx context.Context, name string, wait time.Duration) (func(), error) {
	key := lockKeyPrefix + name
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, domain.ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (l *Locker) release(key, token string) {
	// Release uses a fresh context: the request context may already be done,
	// and an unreleased lock blocks other writers until the TTL expires.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("failed to release lock, it will expire on its own", "key", key, "error", err)
	}
}
