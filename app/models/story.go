package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	STORY_STATUS_DRAFT     = "Draft"
	STORY_STATUS_PUBLISHED = "Published"
	STORY_STATUS_SCHEDULED = "Scheduled"

	DefaultStoryCategory = "General"
)

type Story struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Slug         string     `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug" validate:"required,max=200"`
	Summary      string     `gorm:"type:varchar(300);not null" json:"summary" validate:"required,max=300"`
	Content      string     `gorm:"type:text;not null" json:"content" validate:"required"`
	ImageURL     string     `gorm:"type:varchar(500)" json:"image_url"`
	ScheduledFor *time.Time `gorm:"default:null;index" json:"scheduled_for"`
	AuthorID     *uint      `gorm:"index" json:"author_id"`
	Author       *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Category     string     `gorm:"type:varchar(50);default:'General'" json:"category"`
	Status       string     `gorm:"type:varchar(20);not null;default:'Draft';index" json:"status" validate:"oneof=Draft Published Scheduled"`
	Views        int        `gorm:"default:0" json:"views"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (s *Story) IsPublished() bool {
	return s.Status == STORY_STATUS_PUBLISHED
}

// TimeAgo renders the age of the last update the way the story lists show it.
func (s *Story) TimeAgo(now time.Time) string {
	diff := now.Sub(s.UpdatedAt)
	days := int(diff.Hours() / 24)
	switch {
	case days > 0:
		return fmt.Sprintf("%d days ago", days)
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	default:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	}
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9\-]+`)

// Slugify lowercases the title and joins words with dashes.
func Slugify(title string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(title)), "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}
