package repository

import (
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	TouchLogin(user *models.User) error
	UpdateRole(id uint, role string) error
	List(offset, limit int) ([]models.User, error)
	ListAll() ([]models.User, error)
	ListStaff() ([]models.User, error)
	Count() (int64, error)
	CountLoggedInSince(since time.Time) (int64, error)
}

// SiteConfigRepository reads and writes the key/value site configuration
type SiteConfigRepository interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
	IsMaintenanceMode() (bool, error)
}

// StoryFilter narrows the admin story list; zero values mean "any"
type StoryFilter struct {
	Status   string
	AuthorID uint
}

// StoryRepository defines the interface for story-related database operations
type StoryRepository interface {
	Create(story *models.Story) error
	GetByID(id uint) (*models.Story, error)
	GetPublishedBySlug(slug string) (*models.Story, error)
	SlugExists(slug string, exceptID uint) (bool, error)
	Update(story *models.Story) error
	Delete(id uint) error
	ListPublished(category string, offset, limit int) ([]models.Story, int64, error)
	PublishedCategories() ([]string, error)
	LatestPublished(limit int, excludeID uint) ([]models.Story, error)
	Filter(filter StoryFilter, offset, limit int) ([]models.Story, int64, error)
	CountByStatus() (map[string]int64, error)
	PublishDue(now time.Time) (int64, error)
}

// EventRepository covers events and their RSVPs
type EventRepository interface {
	Create(event *models.Event) error
	GetByID(id uint) (*models.Event, error)
	Update(event *models.Event) error
	Delete(id uint) error
	ListPublished() ([]models.Event, error)
	Upcoming(now time.Time, limit int) ([]models.Event, error)
	ListAll() ([]models.Event, error)
	FindRSVP(eventID uint, userID *uint, email string) (*models.EventRSVP, error)
	CreateRSVP(rsvp *models.EventRSVP) error
	DeleteRSVP(id uint) error
	CountRSVPs(eventID uint) (int64, error)
	RSVPEventIDsForUser(userID uint) ([]uint, error)
}

// ApprovalStats feeds the admin approvals overview
type ApprovalStats struct {
	PartnersApplied    int64
	PartnersApproved   int64
	PartnersRejected   int64
	VolunteersApplied  int64
	VolunteersApproved int64
	MentorshipCount    int64
}

// ApplicationRepository covers volunteer, mentorship and partner applications
type ApplicationRepository interface {
	CreateVolunteer(app *models.VolunteerApplication) error
	GetVolunteer(id uint) (*models.VolunteerApplication, error)
	GetVolunteerByUser(userID uint) (*models.VolunteerApplication, error)
	UpdateVolunteerStatus(id uint, status string) error
	ListVolunteersByStatus(status string, offset, limit int) ([]models.VolunteerApplication, int64, error)
	AllVolunteers() ([]models.VolunteerApplication, error)

	CreateMentorship(app *models.MentorshipApplication) error
	GetMentorship(id uint) (*models.MentorshipApplication, error)
	GetMentorshipByUser(userID uint) (*models.MentorshipApplication, error)
	UpdateMentorshipStatus(id uint, status string) error
	RecentMentorships(limit int) ([]models.MentorshipApplication, error)
	AllMentorships() ([]models.MentorshipApplication, error)

	CreatePartner(app *models.PartnerApplication) error
	GetPartner(id uint) (*models.PartnerApplication, error)
	GetPartnerByUser(userID uint) (*models.PartnerApplication, error)
	UpdatePartnerStatus(id uint, status string) error
	ListPartnersByStatus(status string, offset, limit int) ([]models.PartnerApplication, int64, error)
	CountPendingPartners() (int64, error)
	AllPartners() ([]models.PartnerApplication, error)

	Stats() (*ApprovalStats, error)
}

// DonationRepository holds the read side of donations; state transitions live
// in the billing package
type DonationRepository interface {
	ListByUser(userID uint) ([]models.Donation, error)
	SumSuccess() (float64, error)
	SumSuccessMonthly() (float64, error)
	AvgSuccessSince(since time.Time) (float64, error)
	RecentSuccess(limit int) ([]models.Donation, error)
	AllSuccess() ([]models.Donation, error)
}

// CampaignRepository defines campaign CRUD plus derived totals
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	Update(campaign *models.Campaign) error
	Delete(id uint) error
	ListActive() ([]models.Campaign, error)
	ListAll() ([]models.Campaign, error)
	HasDonations(id uint) (bool, error)
	TotalRaised(id uint) (float64, error)
	WithProgress(campaigns []models.Campaign) ([]models.CampaignProgress, error)
}

// NewsletterRepository manages newsletter subscriptions
type NewsletterRepository interface {
	Subscribe(email string) (bool, error)
	Unsubscribe(email string) error
	ActiveEmails() ([]string, error)
}

// CommunityQARepository lists and stores community Q&A entries
type CommunityQARepository interface {
	List() ([]models.CommunityQA, error)
	Create(entry *models.CommunityQA) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	SiteConfig  SiteConfigRepository
	Story       StoryRepository
	Event       EventRepository
	Application ApplicationRepository
	Donation    DonationRepository
	Campaign    CampaignRepository
	Newsletter  NewsletterRepository
	CommunityQA CommunityQARepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		SiteConfig:  NewSiteConfigRepository(db),
		Story:       NewStoryRepository(db),
		Event:       NewEventRepository(db),
		Application: NewApplicationRepository(db),
		Donation:    NewDonationRepository(db),
		Campaign:    NewCampaignRepository(db),
		Newsletter:  NewNewsletterRepository(db),
		CommunityQA: NewCommunityQARepository(db),
	}
}
