package repository

import (
	"context"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"gorm.io/gorm"
)

type SubscriptionEventRepository interface {
	Log(ctx context.Context, event *entity.SubscriptionEvent) error
}

type subscriptionEventRepository struct {
	db *gorm.DB
}

func NewSubscriptionEventRepository(db *gorm.DB) SubscriptionEventRepository {
	return &subscriptionEventRepository{db: db}
}

func (r *subscriptionEventRepository) Log(ctx context.Context, event *entity.SubscriptionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
