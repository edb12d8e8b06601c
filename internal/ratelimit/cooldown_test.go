package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nawabco/waitlist/internal/cache"
)

func TestMemory_CooldownWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewMemory(2 * time.Second)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, _ := limiter.Allow(ctx, "10.0.0.1", start)
	if !first.Allowed {
		t.Fatal("first request should be allowed")
	}

	second, _ := limiter.Allow(ctx, "10.0.0.1", start.Add(500*time.Millisecond))
	if second.Allowed {
		t.Fatal("request inside the window should be denied")
	}
	if second.RetryAfter != 1500*time.Millisecond {
		t.Errorf("RetryAfter = %s, want 1.5s", second.RetryAfter)
	}

	third, _ := limiter.Allow(ctx, "10.0.0.1", start.Add(2*time.Second))
	if !third.Allowed {
		t.Fatal("request after the window should be allowed")
	}
}

func TestMemory_DeniedAttemptDoesNotExtendWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewMemory(2 * time.Second)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	limiter.Allow(ctx, "k", start)
	if d, _ := limiter.Allow(ctx, "k", start.Add(1900*time.Millisecond)); d.Allowed {
		t.Fatal("expected denial inside window")
	}

	// Measured from the accepted attempt, not the denied one.
	if d, _ := limiter.Allow(ctx, "k", start.Add(2100*time.Millisecond)); !d.Allowed {
		t.Fatal("expected allow once the original window elapsed")
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewMemory(2 * time.Second)
	now := time.Now()

	limiter.Allow(ctx, "10.0.0.1", now)
	if d, _ := limiter.Allow(ctx, "10.0.0.2", now); !d.Allowed {
		t.Error("a different client should not be limited")
	}
	if limiter.Len() != 2 {
		t.Errorf("Len() = %d, want 2", limiter.Len())
	}
}

func TestMemory_ZeroCooldownAllowsEverything(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewMemory(0)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if d, _ := limiter.Allow(ctx, "k", now); !d.Allowed {
			t.Fatalf("attempt %d denied with zero cooldown", i)
		}
	}
}

func TestMemory_ConcurrentSameKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewMemory(time.Minute)
	now := time.Now()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, _ := limiter.Allow(ctx, "shared", now); d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("expected exactly one allowed attempt, got %d", allowed)
	}
}

type fakeCooldownChecker struct {
	result *cache.CooldownResult
	err    error
	window time.Duration
}

func (f *fakeCooldownChecker) CheckCooldown(_ context.Context, _ string, _ time.Time, window time.Duration) (*cache.CooldownResult, error) {
	f.window = window
	return f.result, f.err
}

func TestRedis_PassesThroughDecision(t *testing.T) {
	t.Parallel()

	checker := &fakeCooldownChecker{result: &cache.CooldownResult{Allowed: false, RetryAfter: time.Second}}
	limiter := NewRedis(checker, 2*time.Second, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	d, err := limiter.Allow(context.Background(), "k", time.Now())
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if d.Allowed || d.RetryAfter != time.Second {
		t.Errorf("unexpected decision %+v", d)
	}
	if checker.window != 2*time.Second {
		t.Errorf("window = %s, want 2s", checker.window)
	}
}

func TestRedis_FailsOpen(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	checker := &fakeCooldownChecker{err: errors.New("connection refused")}
	limiter := NewRedis(checker, 2*time.Second, slog.New(slog.NewJSONHandler(&buf, nil)))

	d, err := limiter.Allow(context.Background(), "k", time.Now())
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !d.Allowed {
		t.Error("expected fail-open allow on Redis error")
	}
	if !strings.Contains(buf.String(), "cooldown check failed") {
		t.Errorf("expected failure to be logged, got %q", buf.String())
	}
}
