package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

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
		Password:        cfg.Password,
		DB:              cfg.DB,
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

var cappedReserveScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = limit (int)
-- ARGV[2] = baseline used when the key does not exist yet (int)
-- ARGV[3] = ttl_ms (int)
--
-- Returns:
--  1 if a slot was taken
--  0 if rejected (limit reached)
if redis.call('EXISTS', KEYS[1]) == 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end

local current = redis.call('INCR', KEYS[1])
if current > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

var cappedIncrementScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = baseline used when the key does not exist yet (int)
-- ARGV[2] = ttl_ms (int)
-- Unconditional increment. Returns the new value.
if redis.call('EXISTS', KEYS[1]) == 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
end
return redis.call('INCR', KEYS[1])
`)

var cappedReleaseScript = redis.NewScript(`
-- KEYS[1] = counter key
-- Decrement without going below zero. Missing keys are left missing.
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
local current = redis.call('DECR', KEYS[1])
if current < 0 then
  redis.call('SET', KEYS[1], 0, 'KEEPTTL')
  return 0
end
return current
`)

// ReserveCappedSlot atomically takes one slot from a counter that must never pass limit.
// A missing key is seeded with baseline first, so a cold cache starts from the
// authoritative count instead of zero.
func ReserveCappedSlot(ctx context.Context, rdb redis.Scripter, key string, limit, baseline int, ttl time.Duration) (bool, error) {
	if err := checkCappedArgs(rdb, key, ttl); err != nil {
		return false, err
	}
	if limit < 0 || baseline < 0 {
		return false, errors.New("limit and baseline must be >= 0")
	}
	res, err := cappedReserveScript.Run(ctx, rdb, []string{key}, limit, baseline, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// IncrementCappedSlot takes a slot regardless of the limit and returns the new count.
func IncrementCappedSlot(ctx context.Context, rdb redis.Scripter, key string, baseline int, ttl time.Duration) (int, error) {
	if err := checkCappedArgs(rdb, key, ttl); err != nil {
		return 0, err
	}
	return cappedIncrementScript.Run(ctx, rdb, []string{key}, baseline, ttl.Milliseconds()).Int()
}

// ReleaseCappedSlot gives back a previously taken slot.
func ReleaseCappedSlot(ctx context.Context, rdb redis.Scripter, key string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	_, err := cappedReleaseScript.Run(ctx, rdb, []string{key}).Result()
	return err
}

func checkCappedArgs(rdb redis.Scripter, key string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be > 0")
	}
	return nil
}
