// Package ratelimit gates repeated signup attempts from the same client.
//
// A client may make one accepted attempt per cooldown window. Denied attempts
// do not extend the window; the next attempt after it elapses is accepted and
// starts a new one.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nawabco/waitlist/internal/cache"
)

// DefaultCooldown is the minimum gap between accepted attempts from one client.
const DefaultCooldown = 2 * time.Second

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether a client may proceed at time now.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

// Memory is a process-local Limiter backed by a mutex-guarded map.
// Entries are kept for the life of the process.
type Memory struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
}

// NewMemory returns an in-memory limiter with the given cooldown.
func NewMemory(cooldown time.Duration) *Memory {
	return &Memory{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
	}
}

// Allow implements Limiter. It never returns an error.
func (m *Memory) Allow(_ context.Context, key string, now time.Time) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.last[key]; ok {
		if elapsed := now.Sub(prev); elapsed < m.cooldown {
			return Decision{Allowed: false, RetryAfter: m.cooldown - elapsed}, nil
		}
	}

	m.last[key] = now
	return Decision{Allowed: true}, nil
}

// Len returns the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}

// cooldownChecker is the part of *cache.Cache the Redis limiter needs.
type cooldownChecker interface {
	CheckCooldown(ctx context.Context, clientKey string, now time.Time, window time.Duration) (*cache.CooldownResult, error)
}

// Redis is a Limiter shared by every process pointing at the same Redis.
type Redis struct {
	cache    cooldownChecker
	cooldown time.Duration
	logger   *slog.Logger
}

// NewRedis returns a Redis-backed limiter.
func NewRedis(c cooldownChecker, cooldown time.Duration, logger *slog.Logger) *Redis {
	return &Redis{cache: c, cooldown: cooldown, logger: logger}
}

// Allow implements Limiter. Redis failures fail open: the attempt is allowed
// and the error is logged, not returned.
func (r *Redis) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	result, err := r.cache.CheckCooldown(ctx, key, now, r.cooldown)
	if err != nil {
		r.logger.Error("cooldown check failed",
			slog.String("error", err.Error()),
		)
		return Decision{Allowed: true}, nil
	}

	return Decision{Allowed: result.Allowed, RetryAfter: result.RetryAfter}, nil
}
