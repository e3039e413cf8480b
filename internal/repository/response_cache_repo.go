package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"github.com/redis/go-redis/v9"
)

const responseCachePrefix = "static-cache:"

type ResponseCacheRepository interface {
	Get(ctx context.Context, key string) (*entity.CachedResponse, error)
	Set(ctx context.Context, key string, response *entity.CachedResponse, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
}

type redisResponseCacheRepository struct {
	client *redis.Client
}

func NewResponseCacheRepository(client *redis.Client) ResponseCacheRepository {
	return &redisResponseCacheRepository{client: client}
}

func (r *redisResponseCacheRepository) Get(ctx context.Context, key string) (*entity.CachedResponse, error) {
	raw, err := r.client.Get(ctx, responseCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var response entity.CachedResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *redisResponseCacheRepository) Set(ctx context.Context, key string, response *entity.CachedResponse, ttl time.Duration) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, responseCachePrefix+key, raw, ttl).Err()
}

// Delete reports whether an entry was removed.
func (r *redisResponseCacheRepository) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := r.client.Del(ctx, responseCachePrefix+key).Result()
	return removed > 0, err
}
