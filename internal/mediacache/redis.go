package mediacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "mediacache:"

var _ Cache = (*RedisCache)(nil)

// RedisCache shares the upload index between processes. A zero TTL keeps
// entries until the provider expires the media ids on its side.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *goredis.Client, ttl time.Duration) (*RedisCache, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, digest string) (*Asset, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := c.rdb.Get(ctx, keyPrefix+digest).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read media cache entry: %w", err)
	}

	var asset Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("corrupt media cache entry for %q: %w", digest, err)
	}
	return &asset, nil
}

func (c *RedisCache) Set(ctx context.Context, digest string, asset Asset) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal media cache entry: %w", err)
	}

	if err := c.rdb.Set(ctx, keyPrefix+digest, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store media cache entry: %w", err)
	}
	return nil
}
