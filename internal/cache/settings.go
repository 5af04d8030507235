package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-storefront/internal/logger"
)

const settingsKeyPrefix = "settings:"

// InitializeClient sets up Redis for settings caching and tests the connection
func InitializeClient(redisAddr string, customLogger *logger.Logger) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "", // no password
		DB:       0,  // use default DB
		PoolSize: 10, // connection pool size
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		if customLogger != nil {
			customLogger.Error("CACHE", fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
		}
		return nil, err
	}

	if customLogger != nil {
		customLogger.Info("CACHE", fmt.Sprintf("Successfully connected to Redis at %s for settings caching", redisAddr))
	}
	return redisClient, nil
}

// SettingsCache is a short-TTL read-through cache for public store
// settings (store open flag, platform fee, surge fee). Dispatch-critical
// settings like the delivery mode must NOT go through here; those reads
// always hit the database so admin changes take effect immediately.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewSettingsCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *SettingsCache {
	return &SettingsCache{client: client, ttl: ttl, logger: log}
}

// Get returns the cached value for key, loading and caching it on a miss.
// Redis being down degrades to a plain load, never to an error.
func (c *SettingsCache) Get(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error) {
	if c.client != nil {
		val, err := c.client.Get(ctx, settingsKeyPrefix+key).Result()
		if err == nil {
			return val, nil
		}
		if err != redis.Nil {
			c.logger.Warn("CACHE", fmt.Sprintf("Redis read failed for %s: %v", key, err))
		}
	}

	val, err := load(ctx)
	if err != nil {
		return "", err
	}

	if c.client != nil {
		if err := c.client.Set(ctx, settingsKeyPrefix+key, val, c.ttl).Err(); err != nil {
			c.logger.Warn("CACHE", fmt.Sprintf("Redis write failed for %s: %v", key, err))
		}
	}
	return val, nil
}

// Invalidate drops a cached setting, called when an admin updates it.
func (c *SettingsCache) Invalidate(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, settingsKeyPrefix+key).Err(); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Redis invalidate failed for %s: %v", key, err))
	}
}
