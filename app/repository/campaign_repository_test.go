package repository

import (
	"testing"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedDonation(t *testing.T, db *gorm.DB, ref string, amount float64, status string, campaignID *uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Donation{
		Amount:     amount,
		Currency:   "cad",
		Frequency:  models.FREQUENCY_ONETIME,
		Reference:  ref,
		Status:     status,
		CampaignID: campaignID,
	}).Error)
}

func TestCampaignTotalsCountOnlySuccess(t *testing.T) {
	db := dbtest.New(t)
	repo := NewCampaignRepository(db)

	c := &models.Campaign{Title: "Laptops", GoalAmount: 100, IsActive: true}
	require.NoError(t, repo.Create(c))

	seedDonation(t, db, "cs_1", 40, models.DONATION_STATUS_SUCCESS, &c.ID)
	seedDonation(t, db, "cs_2", 80, models.DONATION_STATUS_SUCCESS, &c.ID)
	seedDonation(t, db, "cs_3", 500, models.DONATION_STATUS_ACTIVE, &c.ID)
	seedDonation(t, db, "cs_4", 500, models.DONATION_STATUS_PENDING, &c.ID)
	seedDonation(t, db, "cs_5", 500, models.DONATION_STATUS_SUCCESS, nil)

	total, err := repo.TotalRaised(c.ID)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, total, 0.001)

	active, err := repo.ListActive()
	require.NoError(t, err)
	progress, err := repo.WithProgress(active)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.InDelta(t, 120.0, progress[0].TotalRaised, 0.001)
	assert.Equal(t, 120, progress[0].Progress)
}

func TestCampaignDeleteDetachesDonations(t *testing.T) {
	db := dbtest.New(t)
	repo := NewCampaignRepository(db)

	c := &models.Campaign{Title: "Old", GoalAmount: 10, IsActive: true}
	require.NoError(t, repo.Create(c))
	seedDonation(t, db, "cs_keep", 5, models.DONATION_STATUS_SUCCESS, &c.ID)

	has, err := repo.HasDonations(c.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, repo.Delete(c.ID))

	var d models.Donation
	require.NoError(t, db.Where("reference = ?", "cs_keep").First(&d).Error)
	assert.Nil(t, d.CampaignID)
}
