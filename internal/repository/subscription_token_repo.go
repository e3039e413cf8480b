package repository

import (
	"context"
	"errors"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionTokenRepository interface {
	Create(ctx context.Context, token *entity.SubscriptionToken) error
	FindByID(ctx context.Context, id string) (*entity.SubscriptionToken, error)
	FindBySubscriptionAndType(ctx context.Context, subscriptionID uuid.UUID, tokenType entity.TokenType) ([]entity.SubscriptionToken, error)
	Delete(ctx context.Context, id string) error
}

type subscriptionTokenRepository struct {
	db *gorm.DB
}

func NewSubscriptionTokenRepository(db *gorm.DB) SubscriptionTokenRepository {
	return &subscriptionTokenRepository{db: db}
}

func (r *subscriptionTokenRepository) Create(ctx context.Context, t *entity.SubscriptionToken) error {
	err := r.db.WithContext(ctx).Omit("Subscription").Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *subscriptionTokenRepository) FindByID(ctx context.Context, id string) (*entity.SubscriptionToken, error) {
	var token entity.SubscriptionToken
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &token, err
}

func (r *subscriptionTokenRepository) FindBySubscriptionAndType(
	ctx context.Context,
	subscriptionID uuid.UUID,
	tokenType entity.TokenType,
) ([]entity.SubscriptionToken, error) {

	var tokens []entity.SubscriptionToken
	err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND token_type = ?", subscriptionID, tokenType).
		Find(&tokens).Error
	return tokens, err
}

func (r *subscriptionTokenRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.SubscriptionToken{}).
		Error
}
