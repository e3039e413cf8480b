package entity

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	VerifyEmail TokenType = "verify_email"
)

// SubscriptionToken is a single-use bearer credential bound to one
// subscription and one purpose. The ID is the secret itself.
type SubscriptionToken struct {
	ID string `gorm:"type:varchar(63);primaryKey"`

	SubscriptionID uuid.UUID    `gorm:"type:uuid;not null;index:idx_subscription_token_owner"`
	Subscription   Subscription `gorm:"constraint:OnDelete:CASCADE"`

	TokenType TokenType `gorm:"type:varchar(32);not null;index:idx_subscription_token_owner"`
	ExpiresAt time.Time `gorm:"not null"`

	CreatedAt time.Time
}

func (SubscriptionToken) TableName() string {
	return "subscription_token"
}
