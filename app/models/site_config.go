package models

import "time"

const (
	CONFIG_MAINTENANCE_MODE = "maintenance_mode"
	CONFIG_SUPPORT_EMAIL    = "support_email"

	DefaultSupportEmail = "info@ourstoryourvoice.org"
)

// SiteConfig is a flat key/value row; Key is unique so every setting has at
// most one row.
type SiteConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:config_key;type:varchar(50);not null;uniqueIndex" json:"key" validate:"required,max=50"`
	Value     string    `gorm:"type:varchar(255);default:'false'" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SiteConfig) TableName() string {
	return "site_config"
}
