package repository

import (
	"errors"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type siteConfigRepository struct {
	db *gorm.DB
}

func NewSiteConfigRepository(db *gorm.DB) SiteConfigRepository {
	return &siteConfigRepository{db: db}
}

// GetValue returns an empty string for keys that were never set
func (r *siteConfigRepository) GetValue(key string) (string, error) {
	var cfg models.SiteConfig
	err := r.db.Where("config_key = ?", key).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return cfg.Value, nil
}

// SetValue upserts on the unique key so concurrent writers never produce a
// second row
func (r *siteConfigRepository) SetValue(key, value string) error {
	cfg := models.SiteConfig{Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cfg).Error
}

func (r *siteConfigRepository) IsMaintenanceMode() (bool, error) {
	value, err := r.GetValue(models.CONFIG_MAINTENANCE_MODE)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}
