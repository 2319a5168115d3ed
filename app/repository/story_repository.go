package repository

import (
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository instance
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(story *models.Story) error {
	return r.db.Create(story).Error
}

func (r *storyRepository) GetByID(id uint) (*models.Story, error) {
	var story models.Story
	if err := r.db.Preload("Author").First(&story, id).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// GetPublishedBySlug hides drafts and scheduled stories from the public site
func (r *storyRepository) GetPublishedBySlug(slug string) (*models.Story, error) {
	var story models.Story
	err := r.db.Preload("Author").
		Where("slug = ? AND status = ?", slug, models.STORY_STATUS_PUBLISHED).
		First(&story).Error
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) SlugExists(slug string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.Model(&models.Story{}).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *storyRepository) Update(story *models.Story) error {
	return r.db.Omit("Author").Save(story).Error
}

func (r *storyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Story{}, id).Error
}

func (r *storyRepository) ListPublished(category string, offset, limit int) ([]models.Story, int64, error) {
	q := r.db.Model(&models.Story{}).Where("status = ?", models.STORY_STATUS_PUBLISHED)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stories []models.Story
	err := q.Preload("Author").Order("created_at DESC").Offset(offset).Limit(limit).Find(&stories).Error
	return stories, total, err
}

func (r *storyRepository) PublishedCategories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Story{}).
		Where("status = ?", models.STORY_STATUS_PUBLISHED).
		Distinct("category").Order("category").Pluck("category", &categories).Error
	return categories, err
}

func (r *storyRepository) LatestPublished(limit int, excludeID uint) ([]models.Story, error) {
	q := r.db.Where("status = ?", models.STORY_STATUS_PUBLISHED)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var stories []models.Story
	err := q.Order("created_at DESC").Limit(limit).Find(&stories).Error
	return stories, err
}

func (r *storyRepository) Filter(filter StoryFilter, offset, limit int) ([]models.Story, int64, error) {
	q := r.db.Model(&models.Story{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stories []models.Story
	err := q.Preload("Author").Order("updated_at DESC").Offset(offset).Limit(limit).Find(&stories).Error
	return stories, total, err
}

// CountByStatus returns one entry per status plus "All"
func (r *storyRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := r.db.Model(&models.Story{}).
		Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		"All":                         0,
		models.STORY_STATUS_PUBLISHED: 0,
		models.STORY_STATUS_DRAFT:     0,
		models.STORY_STATUS_SCHEDULED: 0,
	}
	for _, rw := range rows {
		counts[rw.Status] = rw.Total
		counts["All"] += rw.Total
	}
	return counts, nil
}

// PublishDue flips every due scheduled story in a single statement. Stories
// already published are not matched, so running it again changes nothing.
func (r *storyRepository) PublishDue(now time.Time) (int64, error) {
	res := r.db.Model(&models.Story{}).
		Where("status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", models.STORY_STATUS_SCHEDULED, now).
		Updates(map[string]interface{}{
			"status":     models.STORY_STATUS_PUBLISHED,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
