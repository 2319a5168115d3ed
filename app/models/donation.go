package models

import (
	"time"
)

const (
	DONATION_STATUS_PENDING   = "Pending"
	DONATION_STATUS_SUCCESS   = "Success"
	DONATION_STATUS_ACTIVE    = "Active"
	DONATION_STATUS_CANCELLED = "Cancelled"
	DONATION_STATUS_FAILED    = "Failed"

	FREQUENCY_ONETIME = "onetime"
	FREQUENCY_MONTHLY = "monthly"
)

// Donation mirrors one provider checkout session. Reference holds the session
// id and is the join key with the provider.
type Donation struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               *uint      `gorm:"index" json:"user_id"`
	User                 *User      `gorm:"foreignKey:UserID" json:"-"`
	GuestEmail           string     `gorm:"type:varchar(120)" json:"guest_email"`
	GuestName            string     `gorm:"type:varchar(100)" json:"guest_name"`
	Amount               float64    `gorm:"type:decimal(10,2);not null" json:"amount" validate:"gt=0"`
	Currency             string     `gorm:"type:varchar(3);not null;default:'cad'" json:"currency"`
	Frequency            string     `gorm:"type:varchar(20);not null;default:'onetime'" json:"frequency" validate:"oneof=onetime monthly"`
	StripeSubscriptionID *string    `gorm:"type:varchar(100);index" json:"stripe_subscription_id"`
	StripeCustomerID     *string    `gorm:"type:varchar(100)" json:"stripe_customer_id"`
	Reference            string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"reference" validate:"required"`
	Status               string     `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CampaignID           *uint      `gorm:"index" json:"campaign_id"`
	Campaign             *Campaign  `gorm:"foreignKey:CampaignID;constraint:OnDelete:SET NULL" json:"-"`
	LastCheckedAt        *time.Time `gorm:"index" json:"-"`
	CreatedAt            time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Donation) IsRecurring() bool {
	return d.Frequency == FREQUENCY_MONTHLY
}

// CanCancel is true for live subscriptions only.
func (d *Donation) CanCancel() bool {
	return d.Status == DONATION_STATUS_ACTIVE && d.StripeSubscriptionID != nil && *d.StripeSubscriptionID != ""
}

// DonorName falls back from the owning user to the guest name.
func (d *Donation) DonorName() string {
	if d.User != nil {
		return d.User.FullName()
	}
	if d.GuestName != "" {
		return d.GuestName
	}
	return "Anonymous"
}

func (d *Donation) DonorEmail() string {
	if d.User != nil {
		return d.User.Email
	}
	if d.GuestEmail != "" {
		return d.GuestEmail
	}
	return "No Email"
}

type Campaign struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(100);not null" json:"title" validate:"required,max=100"`
	Description string     `gorm:"type:text" json:"description"`
	GoalAmount  float64    `gorm:"type:decimal(12,2);default:0" json:"goal_amount" validate:"gte=0"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	Donations   []Donation `gorm:"foreignKey:CampaignID" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// ProgressPercent may exceed 100 once a goal is overshot.
func ProgressPercent(raised, goal float64) int {
	if goal <= 0 {
		return 0
	}
	return int(raised / goal * 100)
}

// CampaignProgress is a campaign together with its derived totals.
type CampaignProgress struct {
	Campaign
	TotalRaised float64 `json:"total_raised"`
	Progress    int     `json:"progress"`
}
