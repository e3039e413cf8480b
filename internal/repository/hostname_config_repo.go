package repository

import (
	"context"
	"errors"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"gorm.io/gorm"
)

type HostnameConfigRepository interface {
	FindByHostname(ctx context.Context, hostname string) (*entity.HostnameConfig, error)
}

type hostnameConfigRepository struct {
	db *gorm.DB
}

func NewHostnameConfigRepository(db *gorm.DB) HostnameConfigRepository {
	return &hostnameConfigRepository{db: db}
}

func (r *hostnameConfigRepository) FindByHostname(ctx context.Context, hostname string) (*entity.HostnameConfig, error) {
	var config entity.HostnameConfig
	err := r.db.WithContext(ctx).
		Where("hostname = ?", hostname).
		First(&config).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &config, err
}
