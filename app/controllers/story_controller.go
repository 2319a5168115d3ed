package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/internal/pkg/session"
	"github.com/ourstoryourvoice/osov/internal/pkg/utils"
)

const storiesPerPage = 9

type StoryController struct {
	*Services
}

func (h *StoryController) HandleStories(c *fiber.Ctx) error {
	page := queryPage(c)
	category := c.Query("category")

	stories, total, err := h.Repos.Story.ListPublished(category, (page-1)*storiesPerPage, storiesPerPage)
	if err != nil {
		return err
	}
	categories, err := h.Repos.Story.PublishedCategories()
	if err != nil {
		return err
	}

	return h.render(c, "stories/index", "Stories", fiber.Map{
		"Stories":    stories,
		"Categories": categories,
		"Category":   category,
		"Page":       page,
		"TotalPages": totalPages(total, storiesPerPage),
		"Now":        h.now(),
	})
}

// HandleStory counts one view per session and story.
func (h *StoryController) HandleStory(c *fiber.Ctx) error {
	story, err := h.Repos.Story.GetPublishedBySlug(c.Params("slug"))
	if err != nil {
		return notFoundOr(err)
	}

	if h.Views != nil && session.MarkStoryViewed(c, h.Sessions, story.ID) {
		if err := h.Views.AddStoryView(c.UserContext(), story.ID); err != nil {
			log.Warnf("[Stories] count view for %d: %v", story.ID, err)
		}
	}

	more, err := h.Repos.Story.LatestPublished(4, story.ID)
	if err != nil {
		return err
	}

	return h.render(c, "stories/show", story.Title, fiber.Map{
		"Story":   story,
		"Content": utils.FormatStoryContent(story.Content),
		"More":    more,
	})
}
