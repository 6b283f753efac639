// Package cache is a small JSON cache over Redis.
//
// A nil *Store, or one built without a client, is valid and behaves as an
// always-missing cache, so the application runs without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/metrics"
)

const driver = "redis"

// Store reads and writes JSON values in Redis.
type Store struct {
	rdb *redis.Client
}

// Connect builds a Redis client and verifies it with a ping.
func Connect(ctx context.Context, s config.RedisSettings) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.Addr,
		Password: s.Password,
		DB:       s.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// New wraps an existing client. rdb may be nil.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enabled reports whether the store is backed by Redis.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// Get unmarshals the cached value under key into dest.
// Returns true on a hit, false on miss or error.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}

	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithCtx(ctx).Warn("cache get failed", "key", key, "error", err)
		}
		metrics.RecordCache(driver, false)
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.RecordCache(driver, false)
		return false
	}

	metrics.RecordCache(driver, true)
	return true
}

// Set stores value under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, key, data, ttl).Err()
}

// Del removes one or more keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Flush removes every key starting with prefix. SCAN keeps Redis responsive
// on large keyspaces.
func (s *Store) Flush(ctx context.Context, prefix string) error {
	if !s.Enabled() {
		return nil
	}

	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.Del(ctx, batch...)
}
