package entity

import "github.com/google/uuid"

type EmailConfirm string

const (
	EmailConfirmNone EmailConfirm = ""
	EmailConfirmLink EmailConfirm = "link"
	EmailConfirmCode EmailConfirm = "code"
)

type ListConfig struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Hostname     string       `gorm:"type:varchar(253);not null;uniqueIndex:idx_list_config_identity"`
	ListName     string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_list_config_identity"`
	EmailConfirm EmailConfirm `gorm:"type:varchar(16);not null;default:''"`
}

func (ListConfig) TableName() string {
	return "list_config"
}
