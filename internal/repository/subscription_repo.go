package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	FindByUniqueValues(ctx context.Context, email, hostname, listName string) (*entity.Subscription, error)
	SetUnsubscribedAt(ctx context.Context, id uuid.UUID, at *time.Time) error
	SetEmailConfirmedAt(ctx context.Context, id uuid.UUID, at time.Time) error
	ListActive(ctx context.Context, hostname, listName string, limit, offset int) ([]entity.Subscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) error {
	err := r.db.WithContext(ctx).Create(subscription).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	var subscription entity.Subscription
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&subscription).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &subscription, err
}

func (r *subscriptionRepository) FindByUniqueValues(
	ctx context.Context,
	email string,
	hostname string,
	listName string,
) (*entity.Subscription, error) {

	var subscription entity.Subscription
	err := r.db.WithContext(ctx).
		Where("email = ? AND hostname = ? AND list_name = ?", email, hostname, listName).
		First(&subscription).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &subscription, err
}

// SetUnsubscribedAt stamps the soft-delete marker, or clears it when at is nil.
func (r *subscriptionRepository) SetUnsubscribedAt(ctx context.Context, id uuid.UUID, at *time.Time) error {
	var value any = at
	if at == nil {
		value = gorm.Expr("NULL")
	}
	return r.db.WithContext(ctx).
		Model(&entity.Subscription{}).
		Where("id = ?", id).
		Update("unsubscribed_at", value).
		Error
}

func (r *subscriptionRepository) SetEmailConfirmedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Subscription{}).
		Where("id = ?", id).
		Update("email_confirmed_at", at).
		Error
}

func (r *subscriptionRepository) ListActive(
	ctx context.Context,
	hostname string,
	listName string,
	limit int,
	offset int,
) ([]entity.Subscription, error) {

	var subscriptions []entity.Subscription
	query := r.db.WithContext(ctx).
		Where("hostname = ? AND unsubscribed_at IS NULL", hostname)
	if listName != "" {
		query = query.Where("list_name = ?", listName)
	}
	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&subscriptions).Error
	return subscriptions, err
}
