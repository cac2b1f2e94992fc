package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores JSON encoded values. A ttl of zero means the backend default.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}

type MemoryCache struct {
	*cache.Cache
}

func NewMemoryCache(expirationTime, cleanupTime time.Duration) *MemoryCache {
	return &MemoryCache{cache.New(expirationTime, cleanupTime)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.Cache.Get(key)
	if !ok {
		return false, nil
	}

	b, ok := v.([]byte)
	if !ok {
		return false, fmt.Errorf("cache: unexpected value %T under key %q", v, key)
	}

	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}

	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	c.Cache.Set(key, b, ttl)

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.Cache.Delete(key)
	}
	return nil
}

func (c *MemoryCache) Flush(_ context.Context) error {
	c.Cache.Flush()
	return nil
}

// RedisCache keeps every key under namespace so Flush never touches foreign keys.
type RedisCache struct {
	rdb        *redis.Client
	namespace  string
	defaultTTL time.Duration
}

func NewRedisCache(URL, namespace string, defaultTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(URL)
	if err != nil {
		return nil, fmt.Errorf("could not parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	return &RedisCache{rdb: rdb, namespace: namespace, defaultTTL: defaultTTL}, nil
}

func (c *RedisCache) key(k string) string {
	return c.namespace + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}

	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	return c.rdb.Del(ctx, full...).Err()
}

// Flush removes every key in the namespace using SCAN and pipelined deletes.
func (c *RedisCache) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.namespace+":*", 500).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			pipe := c.rdb.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func CacheKeyPost(id string) string {
	return "post:" + id
}
