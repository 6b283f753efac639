package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retromusic/storefront/pkg/logger"
)

// RedisDriver is a durable queue driver backed by Redis.
// Immediate jobs use LPUSH/BRPOP on a list.
// Delayed jobs use a sorted set scored by Unix timestamp.
type RedisDriver struct {
	rdb        *redis.Client
	listKey    string
	delayedKey string
	popTimeout time.Duration
	now        func() time.Time
}

// NewRedisDriver creates a Redis-backed driver for the named queue.
func NewRedisDriver(rdb *redis.Client, name string) *RedisDriver {
	if name == "" {
		name = "default"
	}
	return &RedisDriver{
		rdb:        rdb,
		listKey:    "retromusic:queue:" + name,
		delayedKey: "retromusic:queue:" + name + ":delayed",
		popTimeout: 5 * time.Second,
		now:        time.Now,
	}
}

// Push adds a job payload to the immediate queue.
func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, d.listKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop blocks until a job is available or the pop timeout elapses.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, d.popTimeout, d.listKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

// PushDelayed schedules a payload to be promoted after delay.
func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(d.now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, d.delayedKey, redis.Z{
		Score:  runAt,
		Member: string(payload),
	}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Run promotes due delayed jobs every second until ctx is done.
func (d *RedisDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.PromoteDue(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("queue/redis: promote delayed", "error", err)
			}
		}
	}
}

// PromoteDue moves delayed jobs whose time has come onto the main list and
// returns how many moved. ZREM decides ownership so concurrent promoters
// never push the same job twice.
func (d *RedisDriver) PromoteDue(ctx context.Context) (int, error) {
	now := strconv.FormatInt(d.now().Unix(), 10)
	jobs, err := d.rdb.ZRangeByScore(ctx, d.delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, job := range jobs {
		removed, err := d.rdb.ZRem(ctx, d.delayedKey, job).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := d.rdb.LPush(ctx, d.listKey, job).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
