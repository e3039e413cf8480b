package entity

type HostnameConfig struct {
	Hostname              string  `gorm:"type:varchar(253);primaryKey"`
	GoogleRecaptchaSecret *string `gorm:"type:text"`
}

func (HostnameConfig) TableName() string {
	return "hostname_config"
}
