package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"productview/catalog/internal/domain"

	"github.com/redis/go-redis/v9"
)

type redisPageCache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewRedisPageCache stores pages under prefix + "page:" + key for ttl.
func NewRedisPageCache(redisClient *redis.Client, prefix string, ttl time.Duration) PageCache {
	return &redisPageCache{
		redisClient: redisClient,
		keyPrefix:   prefix + "page:",
		ttl:         ttl,
	}
}

func (c *redisPageCache) GetPage(ctx context.Context, key string) (*domain.PageResult, error) {
	val, err := c.redisClient.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}

	var stored cachedPage
	if err := json.Unmarshal(val, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cached page: %w", err)
	}

	return stored.unwrap(), nil
}

func (c *redisPageCache) SetPage(ctx context.Context, key string, page domain.PageResult) error {
	data, err := json.Marshal(wrap(page))
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	if err := c.redisClient.Set(ctx, c.keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}
