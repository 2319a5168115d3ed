package billing

import (
	"errors"
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreateDonation(d *models.Donation) error
	GetDonation(id uint) (*models.Donation, error)
	GetDonationByReference(reference string) (*models.Donation, error)
	GetActiveBySubscription(subscriptionID string) (*models.Donation, error)
	ActiveSubscriptionForUser(userID uint) (*models.Donation, error)
	SaveDonation(d *models.Donation) error
	ListPendingBefore(cutoff time.Time, limit int) ([]models.Donation, error)
	TouchDonationChecked(id uint, at time.Time) error
	GetCampaign(id uint) (*models.Campaign, error)
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateDonation(d *models.Donation) error {
	return r.db.Create(d).Error
}

func (r *gormRepository) GetDonation(id uint) (*models.Donation, error) {
	var d models.Donation
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDonationByReference returns nil, nil when no row carries the reference.
func (r *gormRepository) GetDonationByReference(reference string) (*models.Donation, error) {
	var d models.Donation
	err := r.db.Where("reference = ?", reference).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *gormRepository) GetActiveBySubscription(subscriptionID string) (*models.Donation, error) {
	var d models.Donation
	err := r.db.Where("stripe_subscription_id = ? AND status = ?", subscriptionID, models.DONATION_STATUS_ACTIVE).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *gormRepository) ActiveSubscriptionForUser(userID uint) (*models.Donation, error) {
	var d models.Donation
	err := r.db.Where("user_id = ? AND frequency = ? AND status = ?", userID, models.FREQUENCY_MONTHLY, models.DONATION_STATUS_ACTIVE).
		Order("created_at DESC").
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *gormRepository) SaveDonation(d *models.Donation) error {
	return r.db.Save(d).Error
}

// ListPendingBefore returns never-checked rows first, then the ones checked
// longest ago. NULL sorts first in ascending order on MySQL and SQLite.
func (r *gormRepository) ListPendingBefore(cutoff time.Time, limit int) ([]models.Donation, error) {
	var ds []models.Donation
	err := r.db.Where("status = ? AND created_at < ?", models.DONATION_STATUS_PENDING, cutoff).
		Order("last_checked_at ASC, created_at ASC").
		Limit(limit).
		Find(&ds).Error
	return ds, err
}

func (r *gormRepository) TouchDonationChecked(id uint, at time.Time) error {
	return r.db.Model(&models.Donation{}).Where("id = ?", id).UpdateColumn("last_checked_at", at).Error
}

func (r *gormRepository) GetCampaign(id uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
