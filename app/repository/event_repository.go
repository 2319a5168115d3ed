package repository

import (
	"errors"
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *models.Event) error {
	return r.db.Create(event).Error
}

func (r *eventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Update(event *models.Event) error {
	return r.db.Omit("RSVPs").Save(event).Error
}

// Delete removes the event together with its RSVPs
func (r *eventRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventRSVP{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, id).Error
	})
}

// ListPublished orders upcoming events first
func (r *eventRepository) ListPublished() ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("status = ?", models.EVENT_STATUS_PUBLISHED).
		Order("date_time ASC").Find(&events).Error
	return events, err
}

func (r *eventRepository) Upcoming(now time.Time, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("status = ? AND date_time >= ?", models.EVENT_STATUS_PUBLISHED, now).
		Order("date_time ASC").Limit(limit).Find(&events).Error
	return events, err
}

func (r *eventRepository) ListAll() ([]models.Event, error) {
	var events []models.Event
	err := r.db.Order("date_time DESC").Find(&events).Error
	return events, err
}

// FindRSVP matches by user when one is given, otherwise by guest email.
// It returns nil, nil when there is no registration.
func (r *eventRepository) FindRSVP(eventID uint, userID *uint, email string) (*models.EventRSVP, error) {
	q := r.db.Where("event_id = ?", eventID)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("guest_email = ?", models.NormalizeEmail(email))
	}

	var rsvp models.EventRSVP
	err := q.First(&rsvp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *eventRepository) CreateRSVP(rsvp *models.EventRSVP) error {
	return r.db.Create(rsvp).Error
}

func (r *eventRepository) DeleteRSVP(id uint) error {
	return r.db.Delete(&models.EventRSVP{}, id).Error
}

func (r *eventRepository) CountRSVPs(eventID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.EventRSVP{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

func (r *eventRepository) RSVPEventIDsForUser(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.EventRSVP{}).Where("user_id = ?", userID).Pluck("event_id", &ids).Error
	return ids, err
}
