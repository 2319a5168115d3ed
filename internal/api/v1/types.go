package apiv1

import (
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
)

// Pong defines model for Pong.
type Pong struct {
	Ping string `json:"ping"`
}

// Campaign defines model for Campaign.
type Campaign struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	GoalAmount  float64 `json:"goal_amount"`
	TotalRaised float64 `json:"total_raised"`
	Progress    int     `json:"progress"`
	IsActive    bool    `json:"is_active"`
}

// CampaignList defines model for CampaignList.
type CampaignList struct {
	Campaigns []Campaign `json:"campaigns"`
}

// Event defines model for Event.
type Event struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DateTime    time.Time `json:"date_time"`
	Location    string    `json:"location,omitempty"`
	Capacity    int       `json:"capacity"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// EventList defines model for EventList.
type EventList struct {
	Events []Event `json:"events"`
}

// Error defines model for Error.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func campaignFromModel(p models.CampaignProgress) Campaign {
	return Campaign{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		GoalAmount:  p.GoalAmount,
		TotalRaised: p.TotalRaised,
		Progress:    p.Progress,
		IsActive:    p.IsActive,
	}
}

func eventFromModel(e models.Event) Event {
	return Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		DateTime:    e.DateTime.UTC(),
		Location:    e.Location,
		Capacity:    e.Capacity,
		ImageURL:    e.ImageURL,
	}
}
