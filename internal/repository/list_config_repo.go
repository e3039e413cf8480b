package repository

import (
	"context"
	"errors"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"gorm.io/gorm"
)

type ListConfigRepository interface {
	FindByUniqueValues(ctx context.Context, hostname, listName string) (*entity.ListConfig, error)
}

type listConfigRepository struct {
	db *gorm.DB
}

func NewListConfigRepository(db *gorm.DB) ListConfigRepository {
	return &listConfigRepository{db: db}
}

func (r *listConfigRepository) FindByUniqueValues(ctx context.Context, hostname, listName string) (*entity.ListConfig, error) {
	var config entity.ListConfig
	err := r.db.WithContext(ctx).
		Where("hostname = ? AND list_name = ?", hostname, listName).
		First(&config).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &config, err
}
