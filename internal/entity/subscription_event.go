package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionAction string

const (
	ActionSubscribed            SubscriptionAction = "subscribed"
	ActionResubscribed          SubscriptionAction = "resubscribed"
	ActionUnsubscribed          SubscriptionAction = "unsubscribed"
	ActionEmailConfirmed        SubscriptionAction = "email_confirmed"
	ActionConfirmationRequested SubscriptionAction = "confirmation_requested"
)

type SubscriptionEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	SubscriptionID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Hostname       string             `gorm:"type:varchar(253);not null;index"`
	Action         SubscriptionAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}

func (SubscriptionEvent) TableName() string {
	return "subscription_event"
}
