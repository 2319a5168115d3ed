package controllers

import (
	"github.com/gofiber/fiber/v2"
)

type PageController struct {
	*Services
}

// HandleHome shows the next three events and the ten latest stories.
func (h *PageController) HandleHome(c *fiber.Ctx) error {
	events, err := h.Repos.Event.Upcoming(h.now(), 3)
	if err != nil {
		return err
	}
	stories, err := h.Repos.Story.LatestPublished(10, 0)
	if err != nil {
		return err
	}
	return h.render(c, "index", "Home", fiber.Map{
		"Events":  events,
		"Stories": stories,
	})
}

func (h *PageController) HandleCommunityQA(c *fiber.Ctx) error {
	entries, err := h.Repos.CommunityQA.List()
	if err != nil {
		return err
	}
	return h.render(c, "pages/community_qa", "Community Q&A", fiber.Map{"Entries": entries})
}

// Static renders a page that needs no data.
func (h *PageController) Static(view, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.render(c, view, title, nil)
	}
}

func HandleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
