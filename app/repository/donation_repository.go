package repository

import (
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type donationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) ListByUser(userID uint) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Preload("Campaign").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&donations).Error
	return donations, err
}

func (r *donationRepository) sum(q *gorm.DB) (float64, error) {
	var total float64
	err := q.Model(&models.Donation{}).Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

func (r *donationRepository) SumSuccess() (float64, error) {
	return r.sum(r.db.Where("status = ?", models.DONATION_STATUS_SUCCESS))
}

func (r *donationRepository) SumSuccessMonthly() (float64, error) {
	return r.sum(r.db.Where("status = ? AND frequency = ?", models.DONATION_STATUS_SUCCESS, models.FREQUENCY_MONTHLY))
}

func (r *donationRepository) AvgSuccessSince(since time.Time) (float64, error) {
	var avg float64
	err := r.db.Model(&models.Donation{}).
		Where("status = ? AND created_at >= ?", models.DONATION_STATUS_SUCCESS, since).
		Select("COALESCE(AVG(amount), 0)").Scan(&avg).Error
	return avg, err
}

func (r *donationRepository) RecentSuccess(limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Preload("User").Where("status = ?", models.DONATION_STATUS_SUCCESS).
		Order("created_at DESC").Limit(limit).Find(&donations).Error
	return donations, err
}

func (r *donationRepository) AllSuccess() ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Preload("User").Where("status = ?", models.DONATION_STATUS_SUCCESS).
		Order("created_at DESC").Find(&donations).Error
	return donations, err
}
