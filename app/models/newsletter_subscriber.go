package models

import "time"

// NewsletterSubscriber rows are deactivated, never deleted, so a repeated
// sign-up reuses the address.
type NewsletterSubscriber struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Email    string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email" validate:"required,email"`
	IsActive bool      `gorm:"not null;index" json:"is_active"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
