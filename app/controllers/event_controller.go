package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

const eventTimeLayout = "Monday, January 2, 2006 at 3:04 PM"

type EventController struct {
	*Services
}

type rsvpForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Company  string `form:"company"`
	HowHeard string `form:"how_heard"`
}

func (h *EventController) HandleEvents(c *fiber.Ctx) error {
	events, err := h.Repos.Event.ListPublished()
	if err != nil {
		return err
	}
	return h.render(c, "events/index", "Events", fiber.Map{"Events": events, "Now": h.now()})
}

func (h *EventController) HandleEvent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.Repos.Event.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}

	registered := false
	if uc := usercontext.GetUserContext(c); uc.IsLoggedIn {
		ids, err := h.Repos.Event.RSVPEventIDsForUser(uc.UserID)
		if err != nil {
			return err
		}
		for _, eid := range ids {
			if eid == event.ID {
				registered = true
				break
			}
		}
	}

	taken, err := h.Repos.Event.CountRSVPs(event.ID)
	if err != nil {
		return err
	}

	return h.render(c, "events/show", event.Title, fiber.Map{
		"Event":        event,
		"IsRegistered": registered,
		"SeatsTaken":   taken,
		"IsFull":       event.HasCapacityLimit() && taken >= int64(event.Capacity),
	})
}

// HandleRSVP registers the signed-in user or a guest. Duplicates are matched
// by user id for members and by email for guests.
func (h *EventController) HandleRSVP(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.Repos.Event.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	back := fmt.Sprintf("/event/%d", event.ID)

	var form rsvpForm
	if err := c.BodyParser(&form); err != nil {
		return flash.Error(c, back, "Please check the registration form.")
	}

	rsvp := &models.EventRSVP{
		EventID:  event.ID,
		TicketID: models.NewTicketID(),
		Company:  strings.TrimSpace(form.Company),
		HowHeard: strings.TrimSpace(form.HowHeard),
	}
	name, email := strings.TrimSpace(form.Name), models.NormalizeEmail(form.Email)

	uc := usercontext.GetUserContext(c)
	if uc.IsLoggedIn {
		uid := uc.UserID
		rsvp.UserID = &uid
		name, email = uc.FirstName, uc.Email
	} else {
		if name == "" || email == "" {
			return flash.Error(c, back, "Please enter your name and email to register.")
		}
		rsvp.GuestName, rsvp.GuestEmail = name, email
	}

	existing, err := h.Repos.Event.FindRSVP(event.ID, rsvp.UserID, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return flash.Info(c, back, "You are already registered for this event.")
	}

	if event.HasCapacityLimit() {
		taken, err := h.Repos.Event.CountRSVPs(event.ID)
		if err != nil {
			return err
		}
		if taken >= int64(event.Capacity) {
			return flash.Error(c, back, "Sorry, this event is full.")
		}
	}

	if err := h.Repos.Event.CreateRSVP(rsvp); err != nil {
		log.Errorf("[Events] rsvp for event %d failed: %v", event.ID, err)
		return flash.Error(c, back, "Registration failed, please try again.")
	}

	_ = h.deliver(c.UserContext(), mail.Message{
		To:      []string{email},
		Subject: "Your ticket for " + event.Title,
	}, mail.RSVPConfirmation(name, event.Title, event.DateTime.Format(eventTimeLayout), event.Location, rsvp.TicketID))

	return flash.Success(c, back, "You're registered! Your ticket ID is "+rsvp.TicketID+".")
}

func (h *EventController) HandleUnRSVP(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.Repos.Event.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	back := fmt.Sprintf("/event/%d", event.ID)

	uc := usercontext.GetUserContext(c)
	uid := uc.UserID
	rsvp, err := h.Repos.Event.FindRSVP(event.ID, &uid, "")
	if err != nil {
		return err
	}
	if rsvp == nil {
		return flash.Info(c, back, "You are not registered for this event.")
	}
	if err := h.Repos.Event.DeleteRSVP(rsvp.ID); err != nil {
		return err
	}

	_ = h.deliver(c.UserContext(), mail.Message{
		To:      []string{uc.Email},
		Subject: "Registration cancelled: " + event.Title,
	}, mail.RSVPCancelled(uc.FirstName, event.Title))

	return flash.Success(c, back, "Your registration has been cancelled.")
}
