package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	EVENT_STATUS_DRAFT     = "Draft"
	EVENT_STATUS_PUBLISHED = "Published"
)

type Event struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Title       string      `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description string      `gorm:"type:text" json:"description"`
	DateTime    time.Time   `gorm:"not null;index" json:"date_time"`
	Location    string      `gorm:"type:varchar(200)" json:"location"`
	Capacity    int         `gorm:"default:0" json:"capacity" validate:"gte=0"`
	ImageURL    string      `gorm:"type:varchar(500)" json:"image_url"`
	Status      string      `gorm:"type:varchar(20);default:'Draft'" json:"status" validate:"oneof=Draft Published"`
	RSVPs       []EventRSVP `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasCapacityLimit is false for capacity 0, which means unlimited seats.
func (e *Event) HasCapacityLimit() bool {
	return e.Capacity > 0
}

type EventRSVP struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    uint      `gorm:"not null;index" json:"event_id"`
	Event      *Event    `gorm:"foreignKey:EventID" json:"-"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	GuestName  string    `gorm:"type:varchar(100)" json:"guest_name"`
	GuestEmail string    `gorm:"type:varchar(120);index" json:"guest_email"`
	TicketID   string    `gorm:"type:varchar(20);uniqueIndex" json:"ticket_id"`
	Company    string    `gorm:"type:varchar(100)" json:"company"`
	HowHeard   string    `gorm:"type:varchar(100)" json:"how_heard"`
	RSVPDate   time.Time `gorm:"autoCreateTime" json:"rsvp_date"`
}

func (EventRSVP) TableName() string {
	return "event_rsvps"
}

// NewTicketID returns the first eight hex characters of a random UUID in
// upper case.
func NewTicketID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
