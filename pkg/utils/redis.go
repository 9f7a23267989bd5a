package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var slotAcquireScript = redis.NewScript(`
-- KEYS[1] = sorted set of held slots, scored by acquire time (ms)
-- ARGV[1] = limit (int)
-- ARGV[2] = now_ms (int)
-- ARGV[3] = max_age_ms (int)
-- ARGV[4] = member
--
-- Returns:
--  1 if the member holds a slot (newly or already)
--  0 if rejected (limit reached)
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2] - ARGV[3])
if redis.call('ZSCORE', KEYS[1], ARGV[4]) then
  return 1
end
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// AcquireSlot claims a slot under key for member, intended for
// concurrency caps such as a limit on simultaneous inbound calls.
//
// Safety properties:
// - Atomic check-and-claim using Lua.
// - Re-acquiring a held member succeeds, so a retried webhook cannot
//   double-count a call.
// - Slots older than maxAge are dropped, so a missed release cannot
//   wedge the cap shut.
func AcquireSlot(ctx context.Context, rdb *redis.Client, key, member string, limit int, maxAge time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" || member == "" {
		return false, fmt.Errorf("key and member are required")
	}
	if limit <= 0 {
		return false, fmt.Errorf("limit must be > 0")
	}
	if maxAge <= 0 {
		return false, fmt.Errorf("max age must be > 0")
	}

	res, err := slotAcquireScript.Run(ctx, rdb, []string{key},
		limit, time.Now().UnixMilli(), maxAge.Milliseconds(), member).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// ReleaseSlot frees member's slot. Releasing a member that holds no
// slot is a no-op, so a status callback for a rejected call cannot
// free someone else's slot.
func ReleaseSlot(ctx context.Context, rdb *redis.Client, key, member string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" || member == "" {
		return fmt.Errorf("key and member are required")
	}
	return rdb.ZRem(ctx, key, member).Err()
}
