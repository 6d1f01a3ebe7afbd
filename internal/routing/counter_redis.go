package routing

import (
	"context"
	"errors"
	"time"

	"garageleadly/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// minCounterTTL keeps a counter alive briefly even if ExpireAt has already passed.
const minCounterTTL = time.Minute

// RedisCounter keeps daily counters in Redis. Every operation is a single Lua script.
type RedisCounter struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisCounter(rdb redis.UniversalClient) *RedisCounter {
	return &RedisCounter{rdb: rdb, now: time.Now}
}

func (c *RedisCounter) ttl(s Slot) time.Duration {
	d := s.ExpireAt.Sub(c.now())
	if d < minCounterTTL {
		return minCounterTTL
	}
	return d
}

func (c *RedisCounter) Reserve(ctx context.Context, s Slot) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	return utils.ReserveCappedSlot(ctx, c.rdb, s.key(), s.Limit, s.Baseline, c.ttl(s))
}

func (c *RedisCounter) Increment(ctx context.Context, s Slot) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	return utils.IncrementCappedSlot(ctx, c.rdb, s.key(), s.Baseline, c.ttl(s))
}

func (c *RedisCounter) Release(ctx context.Context, s Slot) error {
	if err := s.validate(); err != nil {
		return err
	}
	return utils.ReleaseCappedSlot(ctx, c.rdb, s.key())
}

func (c *RedisCounter) Count(ctx context.Context, s Slot) (int, bool, error) {
	if err := s.validate(); err != nil {
		return 0, false, err
	}
	n, err := c.rdb.Get(ctx, s.key()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
