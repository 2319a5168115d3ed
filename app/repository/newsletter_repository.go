package repository

import (
	"errors"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type newsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

// Subscribe reports false when the address was already an active subscriber.
// An inactive row is switched back on instead of duplicated.
func (r *newsletterRepository) Subscribe(email string) (bool, error) {
	email = models.NormalizeEmail(email)

	var sub models.NewsletterSubscriber
	err := r.db.Where("email = ?", email).First(&sub).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, r.db.Create(&models.NewsletterSubscriber{Email: email, IsActive: true}).Error
	case err != nil:
		return false, err
	case sub.IsActive:
		return false, nil
	}

	return true, r.db.Model(&sub).Update("is_active", true).Error
}

func (r *newsletterRepository) Unsubscribe(email string) error {
	return r.db.Model(&models.NewsletterSubscriber{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Update("is_active", false).Error
}

func (r *newsletterRepository) ActiveEmails() ([]string, error) {
	var emails []string
	err := r.db.Model(&models.NewsletterSubscriber{}).
		Where("is_active = ?", true).Order("id").Pluck("email", &emails).Error
	return emails, err
}
