package repository

import (
	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type communityQARepository struct {
	db *gorm.DB
}

func NewCommunityQARepository(db *gorm.DB) CommunityQARepository {
	return &communityQARepository{db: db}
}

func (r *communityQARepository) List() ([]models.CommunityQA, error) {
	var entries []models.CommunityQA
	err := r.db.Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *communityQARepository) Create(entry *models.CommunityQA) error {
	return r.db.Create(entry).Error
}
