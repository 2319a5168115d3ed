package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
)

type eventForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description"`
	DateTime    string `form:"date_time"`
	Location    string `form:"location" validate:"max=200"`
	Capacity    int    `form:"capacity" validate:"gte=0"`
	Status      string `form:"status" validate:"omitempty,oneof=Draft Published"`
}

func (h *AdminController) HandleEvents(c *fiber.Ctx) error {
	events, err := h.Repos.Event.ListAll()
	if err != nil {
		return err
	}
	return h.render(c, "admin/events", "Events", fiber.Map{"Events": events})
}

func (h *AdminController) HandleEventNew(c *fiber.Ctx) error {
	return h.render(c, "admin/event_form", "New Event", fiber.Map{
		"Event":          &models.Event{Status: models.EVENT_STATUS_PUBLISHED},
		"ScheduleLayout": ScheduleLayout,
	})
}

func (h *AdminController) HandleEventEdit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.Repos.Event.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return h.render(c, "admin/event_form", "Edit Event", fiber.Map{"Event": event, "ScheduleLayout": ScheduleLayout})
}

func (h *AdminController) HandleEventCreate(c *fiber.Ctx) error {
	event := &models.Event{}
	if msg := h.applyEventForm(c, event, true); msg != "" {
		return flash.Error(c, "/admin/events/new", msg)
	}
	if err := h.Repos.Event.Create(event); err != nil {
		log.Errorf("[Events] create failed: %v", err)
		return flash.Error(c, "/admin/events/new", "Could not save the event.")
	}
	return flash.Success(c, "/admin/events", "Event \""+event.Title+"\" created.")
}

func (h *AdminController) HandleEventUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.Repos.Event.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	back := fmt.Sprintf("/admin/events/%d/edit", event.ID)
	if msg := h.applyEventForm(c, event, false); msg != "" {
		return flash.Error(c, back, msg)
	}
	if err := h.Repos.Event.Update(event); err != nil {
		log.Errorf("[Events] update %d failed: %v", event.ID, err)
		return flash.Error(c, back, "Could not save the event.")
	}
	return flash.Success(c, "/admin/events", "Event updated.")
}

func (h *AdminController) HandleEventDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Repos.Event.Delete(id); err != nil {
		return err
	}
	return flash.Success(c, "/admin/events", "Event deleted.")
}

// applyEventForm requires a date on create; on update an empty date keeps
// the stored one.
func (h *AdminController) applyEventForm(c *fiber.Ctx, event *models.Event, create bool) string {
	var form eventForm
	if err := c.BodyParser(&form); err != nil {
		return "Please check the event form."
	}
	if validate.Struct(form) != nil {
		return "A title is required and capacity cannot be negative."
	}

	if form.DateTime != "" {
		t, err := time.ParseInLocation(ScheduleLayout, form.DateTime, time.UTC)
		if err != nil {
			return "Invalid event date."
		}
		event.DateTime = t
	} else if create {
		return "Event date is required."
	}

	event.Title = strings.TrimSpace(form.Title)
	event.Description = form.Description
	event.Location = strings.TrimSpace(form.Location)
	event.Capacity = form.Capacity
	if form.Status != "" {
		event.Status = form.Status
	} else if event.Status == "" {
		event.Status = models.EVENT_STATUS_PUBLISHED
	}

	if url, msg := h.uploadImage(c, "image", "events"); msg != "" {
		return msg
	} else if url != "" {
		event.ImageURL = url
	}
	return ""
}
