package repository

import (
	"errors"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// firstOrNil maps a missing row to nil, nil
func firstOrNil[T any](q *gorm.DB) (*T, error) {
	var out T
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *applicationRepository) CreateVolunteer(app *models.VolunteerApplication) error {
	return r.db.Omit("User").Create(app).Error
}

func (r *applicationRepository) GetVolunteer(id uint) (*models.VolunteerApplication, error) {
	var app models.VolunteerApplication
	if err := r.db.Preload("User").First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) GetVolunteerByUser(userID uint) (*models.VolunteerApplication, error) {
	return firstOrNil[models.VolunteerApplication](r.db.Where("user_id = ?", userID))
}

func (r *applicationRepository) UpdateVolunteerStatus(id uint, status string) error {
	return r.db.Model(&models.VolunteerApplication{}).Where("id = ?", id).Update("status", status).Error
}

func (r *applicationRepository) ListVolunteersByStatus(status string, offset, limit int) ([]models.VolunteerApplication, int64, error) {
	q := r.db.Model(&models.VolunteerApplication{}).Where("status = ?", status)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []models.VolunteerApplication
	err := q.Preload("User").Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error
	return apps, total, err
}

func (r *applicationRepository) AllVolunteers() ([]models.VolunteerApplication, error) {
	var apps []models.VolunteerApplication
	err := r.db.Preload("User").Order("id ASC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) CreateMentorship(app *models.MentorshipApplication) error {
	return r.db.Omit("User").Create(app).Error
}

func (r *applicationRepository) GetMentorship(id uint) (*models.MentorshipApplication, error) {
	var app models.MentorshipApplication
	if err := r.db.Preload("User").First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) GetMentorshipByUser(userID uint) (*models.MentorshipApplication, error) {
	return firstOrNil[models.MentorshipApplication](r.db.Where("user_id = ?", userID))
}

func (r *applicationRepository) UpdateMentorshipStatus(id uint, status string) error {
	return r.db.Model(&models.MentorshipApplication{}).Where("id = ?", id).Update("status", status).Error
}

func (r *applicationRepository) RecentMentorships(limit int) ([]models.MentorshipApplication, error) {
	var apps []models.MentorshipApplication
	err := r.db.Preload("User").Order("created_at DESC").Limit(limit).Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) AllMentorships() ([]models.MentorshipApplication, error) {
	var apps []models.MentorshipApplication
	err := r.db.Preload("User").Order("id ASC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) CreatePartner(app *models.PartnerApplication) error {
	return r.db.Omit("User").Create(app).Error
}

func (r *applicationRepository) GetPartner(id uint) (*models.PartnerApplication, error) {
	var app models.PartnerApplication
	if err := r.db.Preload("User").First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) GetPartnerByUser(userID uint) (*models.PartnerApplication, error) {
	return firstOrNil[models.PartnerApplication](r.db.Where("user_id = ?", userID).Order("created_at DESC"))
}

func (r *applicationRepository) UpdatePartnerStatus(id uint, status string) error {
	return r.db.Model(&models.PartnerApplication{}).Where("id = ?", id).Update("status", status).Error
}

func (r *applicationRepository) ListPartnersByStatus(status string, offset, limit int) ([]models.PartnerApplication, int64, error) {
	q := r.db.Model(&models.PartnerApplication{}).Where("status = ?", status)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []models.PartnerApplication
	query := q.Preload("User").Order("created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&apps).Error
	return apps, total, err
}

// CountPendingPartners ignores case, older rows were stored lower-case
func (r *applicationRepository) CountPendingPartners() (int64, error) {
	var count int64
	err := r.db.Model(&models.PartnerApplication{}).
		Where("LOWER(status) = ?", "pending").Count(&count).Error
	return count, err
}

func (r *applicationRepository) AllPartners() ([]models.PartnerApplication, error) {
	var apps []models.PartnerApplication
	err := r.db.Preload("User").Order("id ASC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) Stats() (*ApprovalStats, error) {
	stats := &ApprovalStats{}
	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dst   *int64
	}{
		{&models.PartnerApplication{}, "", nil, &stats.PartnersApplied},
		{&models.PartnerApplication{}, "status = ?", []interface{}{models.APPLICATION_STATUS_APPROVED}, &stats.PartnersApproved},
		{&models.PartnerApplication{}, "status = ?", []interface{}{models.APPLICATION_STATUS_REJECTED}, &stats.PartnersRejected},
		{&models.VolunteerApplication{}, "", nil, &stats.VolunteersApplied},
		{&models.VolunteerApplication{}, "status = ?", []interface{}{models.APPLICATION_STATUS_APPROVED}, &stats.VolunteersApproved},
		{&models.MentorshipApplication{}, "", nil, &stats.MentorshipCount},
	}

	for _, c := range counts {
		q := r.db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}
