package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over Redis used to keep the job tracker listing
// cheap. Every method is safe on a nil receiver, so the service runs without
// Redis entirely.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at addr. An empty addr or a failed ping returns nil;
// the service then runs uncached.
func New(addr string) *Cache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis not available, running without cache: %v", err)
		return nil
	}
	log.Println("connected to redis")
	return &Cache{client: client}
}

// Get loads a cached JSON value into dest, reporting whether it was present.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a JSON value under key with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache marshal %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

// GetVersion reads the current version counter for a key family. Listing
// cache keys embed this counter, so bumping it invalidates every cached page
// at once.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if c == nil {
		return 0
	}
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("cache version %s: %v", key, err)
	}
	return v
}

// IncrementVersion bumps the version counter for a key family.
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		log.Printf("cache incr %s: %v", key, err)
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
