//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nawabco/waitlist/internal/testutil"
)

func newCooldownTestCache(t *testing.T) *Cache {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "TEST_REDIS_URL")
	ctx := context.Background()

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return c
}

func TestIntegrationCooldown_WindowElapses(t *testing.T) {
	c := newCooldownTestCache(t)
	ctx := context.Background()
	window := 300 * time.Millisecond

	first, err := c.CheckCooldown(ctx, "10.0.0.1", time.Now(), window)
	if err != nil || !first.Allowed {
		t.Fatalf("first attempt = (%+v, %v), want allowed", first, err)
	}

	second, err := c.CheckCooldown(ctx, "10.0.0.1", time.Now(), window)
	if err != nil {
		t.Fatalf("second attempt error: %v", err)
	}
	if second.Allowed {
		t.Fatal("second attempt inside window should be denied")
	}
	if second.RetryAfter <= 0 || second.RetryAfter > window {
		t.Errorf("RetryAfter = %s, want within (0, %s]", second.RetryAfter, window)
	}

	time.Sleep(window + 50*time.Millisecond)

	third, err := c.CheckCooldown(ctx, "10.0.0.1", time.Now(), window)
	if err != nil || !third.Allowed {
		t.Fatalf("attempt after window = (%+v, %v), want allowed", third, err)
	}
}

// TestIntegrationCooldown_Concurrency verifies only one of many simultaneous
// attempts from the same client wins the window.
func TestIntegrationCooldown_Concurrency(t *testing.T) {
	c := newCooldownTestCache(t)
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := c.CheckCooldown(ctx, "10.0.0.2", time.Now(), 5*time.Second)
			if err != nil {
				t.Errorf("CheckCooldown error: %v", err)
				return
			}
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("expected exactly 1 allowed attempt, got %d", allowed)
	}
}
