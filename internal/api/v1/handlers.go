package apiv1

import (
	"errors"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
)

const defaultEventLimit = 10

// APIServer implements the ServerInterface
type APIServer struct {
	repos *repository.Repositories
	doc   *openapi3.T
	now   func() time.Time
}

// NewAPIServer creates a new API server instance
func NewAPIServer(repos *repository.Repositories, doc *openapi3.T) *APIServer {
	return &APIServer{repos: repos, doc: doc, now: time.Now}
}

// Doc returns the validated document the routes are checked against.
func (s *APIServer) Doc() *openapi3.T {
	return s.doc
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

func (s *APIServer) ListCampaigns(c *fiber.Ctx) error {
	active, err := s.repos.Campaign.ListActive()
	if err != nil {
		return err
	}
	progress, err := s.repos.Campaign.WithProgress(active)
	if err != nil {
		return err
	}
	out := CampaignList{Campaigns: make([]Campaign, 0, len(progress))}
	for _, p := range progress {
		out.Campaigns = append(out.Campaigns, campaignFromModel(p))
	}
	return c.JSON(out)
}

// GetCampaign also answers for inactive campaigns; is_active tells them apart.
func (s *APIServer) GetCampaign(c *fiber.Ctx, id uint) error {
	campaign, err := s.repos.Campaign.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(Error{Error: "not_found", Message: "campaign not found"})
	}
	if err != nil {
		return err
	}
	progress, err := s.repos.Campaign.WithProgress([]models.Campaign{*campaign})
	if err != nil {
		return err
	}
	return c.JSON(campaignFromModel(progress[0]))
}

func (s *APIServer) ListEvents(c *fiber.Ctx, params ListEventsParams) error {
	events, err := s.repos.Event.Upcoming(s.now(), params.Limit)
	if err != nil {
		return err
	}
	out := EventList{Events: make([]Event, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, eventFromModel(e))
	}
	return c.JSON(out)
}

func (s *APIServer) GetOpenAPI(c *fiber.Ctx) error {
	body, err := s.doc.MarshalJSON()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
