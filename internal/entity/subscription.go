package entity

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email      string  `gorm:"type:varchar(320);not null;uniqueIndex:idx_subscription_identity"`
	Hostname   string  `gorm:"type:varchar(253);not null;uniqueIndex:idx_subscription_identity"`
	ListName   string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_subscription_identity"`
	PersonName *string `gorm:"type:varchar(255)"`

	EmailConfirmedAt *time.Time
	UnsubscribedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Subscription) TableName() string {
	return "subscription"
}

// Active reports whether the subscription has not been unsubscribed.
func (s Subscription) Active() bool {
	return s.UnsubscribedAt == nil
}

func (s Subscription) EmailConfirmed() bool {
	return s.EmailConfirmedAt != nil
}
