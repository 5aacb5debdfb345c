package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fullstackverse/form-gateway/internal/domain"
	"github.com/fullstackverse/form-gateway/internal/domain/mocks"
)

func newTestLimiter(store domain.KVStore, locks domain.Locker, window time.Duration, max int) *Limiter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLimiter(store, locks, logger, window, max, time.Second, nil)
}

func TestLimiterWindow(t *testing.T) {
	store := mocks.NewMemoryKVStore()
	limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, 30)

	now := time.Now()
	for i := 1; i <= 30; i++ {
		if !limiter.Allow(context.Background(), "1.2.3.4", now) {
			t.Fatalf("call %d unexpectedly rejected", i)
		}
	}

	if limiter.Allow(context.Background(), "1.2.3.4", now) {
		t.Error("31st call within the window should be rejected")
	}

	// A fresh window resets the counter.
	later := now.Add(time.Minute + time.Millisecond)
	if !limiter.Allow(context.Background(), "1.2.3.4", later) {
		t.Error("call after the window elapsed should be allowed")
	}

	var entry domain.RateCounterEntry
	if err := json.Unmarshal([]byte(store.Values["rate:1.2.3.4"]), &entry); err != nil {
		t.Fatalf("failed to decode stored entry: %v", err)
	}
	if entry.Count != 1 {
		t.Errorf("count after reset = %d, want 1", entry.Count)
	}
	if entry.WindowStart != later.UnixMilli() {
		t.Errorf("windowStart after reset = %d, want %d", entry.WindowStart, later.UnixMilli())
	}
}

func TestLimiterIndependentClients(t *testing.T) {
	store := mocks.NewMemoryKVStore()
	limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, 1)

	now := time.Now()
	if !limiter.Allow(context.Background(), "a", now) {
		t.Fatal("first call for client a should be allowed")
	}
	if !limiter.Allow(context.Background(), "b", now) {
		t.Error("client b must not share client a's counter")
	}
	if limiter.Allow(context.Background(), "a", now) {
		t.Error("second call for client a should be rejected")
	}
}

func TestLimiterEmptyClientID(t *testing.T) {
	store := mocks.NewMemoryKVStore()
	limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, 1)

	for i := 0; i < 10; i++ {
		if !limiter.Allow(context.Background(), "", time.Now()) {
			t.Fatal("empty client id must always be allowed")
		}
	}
	if len(store.Values) != 0 {
		t.Error("empty client id must not create a counter entry")
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	t.Run("Store read error", func(t *testing.T) {
		store := mocks.NewMemoryKVStore()
		store.GetErr = errors.New("store down")
		limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, 1)

		for i := 0; i < 5; i++ {
			if !limiter.Allow(context.Background(), "1.2.3.4", time.Now()) {
				t.Fatal("limiter must allow when the store fails")
			}
		}
	})

	t.Run("Store write error", func(t *testing.T) {
		store := mocks.NewMemoryKVStore()
		store.SetErr = errors.New("store down")
		limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, 1)

		if !limiter.Allow(context.Background(), "1.2.3.4", time.Now()) {
			t.Fatal("limiter must allow when persisting the counter fails")
		}
	})

	t.Run("Lock acquisition error", func(t *testing.T) {
		store := mocks.NewMemoryKVStore()
		locks := &mocks.MemoryLocker{AcquireErr: domain.ErrLockTimeout}
		limiter := newTestLimiter(store, locks, time.Minute, 1)

		if !limiter.Allow(context.Background(), "1.2.3.4", time.Now()) {
			t.Fatal("limiter must allow when the lock cannot be acquired")
		}
	})

	t.Run("Corrupt entry resets instead of failing", func(t *testing.T) {
		store := mocks.NewMemoryKVStore()
		store.Values["rate:1.2.3.4"] = "{not json"
		limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, 1)

		if !limiter.Allow(context.Background(), "1.2.3.4", time.Now()) {
			t.Fatal("corrupt counter must be treated as a fresh window")
		}
	})
}

func TestLimiterConcurrentIncrements(t *testing.T) {
	const n = 50

	store := mocks.NewMemoryKVStore()
	limiter := newTestLimiter(store, &mocks.MemoryLocker{}, time.Minute, n*2)

	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Allow(context.Background(), "1.2.3.4", now)
		}()
	}
	wg.Wait()

	var entry domain.RateCounterEntry
	if err := json.Unmarshal([]byte(store.Values["rate:1.2.3.4"]), &entry); err != nil {
		t.Fatalf("failed to decode stored entry: %v", err)
	}
	if entry.Count != n {
		t.Errorf("final count = %d, want %d (lost updates)", entry.Count, n)
	}
}
