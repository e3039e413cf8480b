package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const apiKeyPrefix = "api-key:"

// ApiKeyRepository stores raw JSON API key records by key.
type ApiKeyRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type redisApiKeyRepository struct {
	client *redis.Client
}

func NewApiKeyRepository(client *redis.Client) ApiKeyRepository {
	return &redisApiKeyRepository{client: client}
}

// Get returns nil without error when the key is absent.
func (r *redisApiKeyRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, apiKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (r *redisApiKeyRepository) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, apiKeyPrefix+key, value, 0).Err()
}

func (r *redisApiKeyRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, apiKeyPrefix+key).Err()
}
