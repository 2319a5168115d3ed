package repository

import (
	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type campaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *campaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Update writes all columns so an unchecked is_active box persists as false
func (r *campaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Omit("Donations").Save(campaign).Error
}

// Delete detaches donations before removing the campaign so financial
// records survive on databases without ON DELETE SET NULL.
func (r *campaignRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Donation{}).Where("campaign_id = ?", id).
			Update("campaign_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Campaign{}, id).Error
	})
}

func (r *campaignRepository) ListActive() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("is_active = ?", true).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) ListAll() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) HasDonations(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Donation{}).Where("campaign_id = ?", id).Count(&count).Error
	return count > 0, err
}

// TotalRaised sums Success donations only; Active subscriptions are excluded
func (r *campaignRepository) TotalRaised(id uint) (float64, error) {
	var total float64
	err := r.db.Model(&models.Donation{}).
		Where("campaign_id = ? AND status = ?", id, models.DONATION_STATUS_SUCCESS).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

// WithProgress computes totals for all campaigns in one grouped query
func (r *campaignRepository) WithProgress(campaigns []models.Campaign) ([]models.CampaignProgress, error) {
	out := make([]models.CampaignProgress, 0, len(campaigns))
	if len(campaigns) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}

	type row struct {
		CampaignID uint
		Total      float64
	}
	var rows []row
	err := r.db.Model(&models.Donation{}).
		Select("campaign_id, COALESCE(SUM(amount), 0) AS total").
		Where("campaign_id IN ? AND status = ?", ids, models.DONATION_STATUS_SUCCESS).
		Group("campaign_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uint]float64, len(rows))
	for _, rw := range rows {
		totals[rw.CampaignID] = rw.Total
	}

	for _, c := range campaigns {
		raised := totals[c.ID]
		out = append(out, models.CampaignProgress{
			Campaign:    c,
			TotalRaised: raised,
			Progress:    models.ProgressPercent(raised, c.GoalAmount),
		})
	}
	return out, nil
}
