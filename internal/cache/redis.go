// Package cache holds read-mostly derived lists (item names, the location
// catalog) so search-page loads do not hit the table store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/config"

	"github.com/redis/go-redis/v9"
)

// Well-known list keys.
const (
	KeyNames     = "names"
	KeyLocations = "locations"
)

var listKeys = []string{KeyNames, KeyLocations}

// NewRedisClient creates a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// RedisLists is the Redis-backed list cache.
type RedisLists struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLists(client *redis.Client, ttl time.Duration) *RedisLists {
	return &RedisLists{client: client, ttl: ttl}
}

func (r *RedisLists) Get(ctx context.Context, key string) ([]string, bool) {
	if r.client == nil {
		return nil, false
	}
	val, err := r.client.Get(ctx, listKey(key)).Result()
	if err != nil {
		return nil, false
	}

	var values []string
	if err := json.Unmarshal([]byte(val), &values); err != nil {
		return nil, false
	}
	return values, true
}

func (r *RedisLists) Set(ctx context.Context, key string, values []string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}
	if err := r.client.Set(ctx, listKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set list in redis: %w", err)
	}
	return nil
}

func (r *RedisLists) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	keys := make([]string, 0, len(listKeys))
	for _, k := range listKeys {
		keys = append(keys, listKey(k))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate lists: %w", err)
	}
	return nil
}

func listKey(key string) string {
	return "noormeds:list:" + key
}
