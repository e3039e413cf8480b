package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redirectPrefix = "redirect:"

type RedirectRepository interface {
	Find(ctx context.Context, key string) (string, error)
}

type redisRedirectRepository struct {
	client *redis.Client
}

func NewRedirectRepository(client *redis.Client) RedirectRepository {
	return &redisRedirectRepository{client: client}
}

// Find returns the redirect target for an object key, or "" when none exists.
func (r *redisRedirectRepository) Find(ctx context.Context, key string) (string, error) {
	location, err := r.client.Get(ctx, redirectPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return location, err
}
