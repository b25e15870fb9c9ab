package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"smartcook/internal/logging"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores generated recipes per normalised request.
type Cache interface {
	Get(ctx context.Context, key string) ([]Recipe, bool, error)
	Set(ctx context.Context, key string, recipes []Recipe) error
}

// RedisCache is a Cache backed by redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to url (redis://...) and pings it.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisCache{client: client, prefix: "smartcook:recommend:", ttl: ttl}, nil
}

func (c *RedisCache) key(k string) string {
	sum := sha256.Sum256([]byte(k))
	return c.prefix + hex.EncodeToString(sum[:16])
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]Recipe, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var recipes []Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		logging.Get(logging.CategoryCache).Warn("Dropping corrupt recommendation entry: %v", err)
		return nil, false, nil
	}
	return recipes, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, recipes []Recipe) error {
	data, err := json.Marshal(recipes)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
