package cache

import (
	"context"
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	// cooldownPrefix is the Redis key prefix for signup cooldowns.
	cooldownPrefix = "cooldown:signup:"
)

// CooldownResult contains the result of a cooldown check.
type CooldownResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// CheckCooldown records an attempt for clientKey and reports whether it is
// allowed. The key is written with SET NX PX, so only the first attempt in
// each window succeeds; later attempts read the remaining PTTL. The stored
// value is the accepted attempt's time and is never moved by denied attempts.
func (c *Cache) CheckCooldown(ctx context.Context, clientKey string, now time.Time, window time.Duration) (*CooldownResult, error) {
	if window <= 0 {
		return &CooldownResult{Allowed: true}, nil
	}

	key := cooldownPrefix + hashKey(clientKey)

	ok, err := c.client.SetNX(ctx, key, strconv.FormatInt(now.UnixMilli(), 10), window).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return &CooldownResult{Allowed: true}, nil
	}

	ttl, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	// Key expired between SETNX and PTTL, or has no TTL at all.
	if ttl <= 0 {
		ttl = time.Millisecond
	}

	return &CooldownResult{Allowed: false, RetryAfter: ttl}, nil
}

// hashKey creates a truncated BLAKE2b hash of a client identifier.
// This provides privacy while maintaining uniqueness.
func hashKey(clientKey string) string {
	hash := blake2b.Sum256([]byte(clientKey))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
