package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fullstackverse/form-gateway/internal/adapter/metrics"
	"github.com/fullstackverse/form-gateway/internal/domain"
)

const counterKeyPrefix = "rate:"

// Limiter throttles submissions per client identifier using a rolling window
// counter kept in a shared key-value store. The read-modify-write cycle is
// serialized through a Locker so concurrent increments are never lost.
//
// The limiter fails open: if the lock or the store misbehaves, the request is
// allowed and the failure only logged. A broken rate limiter must never block
// legitimate traffic.
type Limiter struct {
	store    domain.KVStore
	locks    domain.Locker
	logger   *slog.Logger
	window   time.Duration
	max      int
	lockWait time.Duration
	metrics  *metrics.GatewayMetrics
}

// NewLimiter creates a Limiter. Metrics may be nil.
func NewLimiter(store domain.KVStore, locks domain.Locker, logger *slog.Logger, window time.Duration, max int, lockWait time.Duration, m *metrics.GatewayMetrics) *Limiter {
	return &Limiter{
		store:    store,
		locks:    locks,
		logger:   logger.With("component", "rate_limiter"),
		window:   window,
		max:      max,
		lockWait: lockWait,
		metrics:  m,
	}
}

// Allow records a submission attempt for clientID at the given time and
// reports whether it may proceed. An empty clientID always passes: an
// unidentifiable client cannot be rate-limited.
func (l *Limiter) Allow(ctx context.Context, clientID string, now time.Time) bool {
	if clientID == "" {
		return true
	}

	key := counterKeyPrefix + clientID

	release, err := l.locks.Acquire(ctx, key, l.lockWait)
	if err != nil {
		l.failOpen("failed to acquire rate limit lock", err, clientID)
		return true
	}
	defer release()

	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		l.failOpen("failed to read rate counter", err, clientID)
		return true
	}

	nowMillis := now.UnixMilli()
	entry := domain.RateCounterEntry{Count: 1, WindowStart: nowMillis}

	if found {
		var prev domain.RateCounterEntry
		if err := json.Unmarshal([]byte(raw), &prev); err != nil {
			l.logger.Warn("corrupt rate counter entry, resetting", "client_id", clientID, "error", err)
		} else if nowMillis-prev.WindowStart <= l.window.Milliseconds() {
			entry = domain.RateCounterEntry{Count: prev.Count + 1, WindowStart: prev.WindowStart}
		}
		// Elapsed window falls through to the fresh entry above.
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		l.failOpen("failed to marshal rate counter", err, clientID)
		return true
	}
	if err := l.store.Set(ctx, key, string(payload)); err != nil {
		l.failOpen("failed to persist rate counter", err, clientID)
		return true
	}

	if entry.Count > l.max {
		if l.metrics != nil {
			l.metrics.RateLimitDecisions.WithLabelValues("rejected").Inc()
		}
		return false
	}

	if l.metrics != nil {
		l.metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
	}
	return true
}

func (l *Limiter) failOpen(msg string, err error, clientID string) {
	l.logger.Warn(msg+", allowing request", "error", err, "client_id", clientID)
	if l.metrics != nil {
		l.metrics.RateLimitDecisions.WithLabelValues("fail_open").Inc()
	}
}
