package config

import (
	"fmt"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectionDb(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disable prepared statements completely
	}), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.HostnameConfig{},
		&entity.ListConfig{},
		&entity.Subscription{},
		&entity.SubscriptionToken{},
		&entity.SubscriptionEvent{},
	)
}
