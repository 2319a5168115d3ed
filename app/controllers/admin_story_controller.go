package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/shortener"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

// ScheduleLayout is the value format of datetime-local inputs, read as UTC
const ScheduleLayout = "2006-01-02T15:04"

type storyForm struct {
	Title        string `form:"title" validate:"required,max=200"`
	Summary      string `form:"summary" validate:"required,max=300"`
	Content      string `form:"content" validate:"required"`
	Category     string `form:"category" validate:"max=50"`
	Status       string `form:"status" validate:"oneof=Draft Published Scheduled"`
	ScheduledFor string `form:"scheduled_for"`
}

// HandleStories lists stories for staff. Loading the page also publishes
// due scheduled stories, so scheduling works even with the worker off.
func (h *AdminController) HandleStories(c *fiber.Ctx) error {
	if n, err := h.Repos.Story.PublishDue(h.now()); err != nil {
		log.Warnf("[Stories] publish due on page load: %v", err)
	} else if n > 0 {
		log.Infof("[Stories] published %d scheduled stories", n)
	}

	filter := repository.StoryFilter{Status: c.Query("status")}
	if author := c.QueryInt("author", 0); author > 0 {
		filter.AuthorID = uint(author)
	}
	page := queryPage(c)

	stories, total, err := h.Repos.Story.Filter(filter, (page-1)*storiesPerPage, storiesPerPage)
	if err != nil {
		return err
	}
	counts, err := h.Repos.Story.CountByStatus()
	if err != nil {
		return err
	}
	authors, err := h.Repos.User.ListStaff()
	if err != nil {
		return err
	}

	return h.render(c, "admin/stories", "Stories", fiber.Map{
		"Stories":    stories,
		"Counts":     counts,
		"Authors":    authors,
		"Filter":     filter,
		"Page":       page,
		"TotalPages": totalPages(total, storiesPerPage),
		"Now":        h.now(),
	})
}

func (h *AdminController) HandleStoryNew(c *fiber.Ctx) error {
	return h.render(c, "admin/story_form", "New Story", fiber.Map{"Story": &models.Story{Status: models.STORY_STATUS_DRAFT}})
}

func (h *AdminController) HandleStoryEdit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	story, err := h.Repos.Story.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return h.render(c, "admin/story_form", "Edit Story", fiber.Map{"Story": story, "ScheduleLayout": ScheduleLayout})
}

func (h *AdminController) HandleStoryCreate(c *fiber.Ctx) error {
	story := &models.Story{}
	if msg := h.applyStoryForm(c, story); msg != "" {
		return flash.Error(c, "/admin/stories/new", msg)
	}
	uid := usercontext.GetUserID(c)
	story.AuthorID = &uid

	slug, err := shortener.UniqueSlug(models.Slugify(story.Title), func(s string) (bool, error) {
		return h.Repos.Story.SlugExists(s, 0)
	})
	if err != nil {
		return err
	}
	story.Slug = slug

	if err := h.Repos.Story.Create(story); err != nil {
		log.Errorf("[Stories] create failed: %v", err)
		return flash.Error(c, "/admin/stories/new", "Could not save the story.")
	}
	return flash.Success(c, "/admin/stories", "Story \""+story.Title+"\" created.")
}

func (h *AdminController) HandleStoryUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	story, err := h.Repos.Story.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	back := fmt.Sprintf("/admin/stories/%d/edit", story.ID)

	oldTitle := story.Title
	if msg := h.applyStoryForm(c, story); msg != "" {
		return flash.Error(c, back, msg)
	}
	if story.Title != oldTitle {
		slug, err := shortener.UniqueSlug(models.Slugify(story.Title), func(s string) (bool, error) {
			return h.Repos.Story.SlugExists(s, story.ID)
		})
		if err != nil {
			return err
		}
		story.Slug = slug
	}

	if err := h.Repos.Story.Update(story); err != nil {
		log.Errorf("[Stories] update %d failed: %v", story.ID, err)
		return flash.Error(c, back, "Could not save the story.")
	}
	return flash.Success(c, "/admin/stories", "Story updated.")
}

func (h *AdminController) HandleStoryDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Repos.Story.Delete(id); err != nil {
		return err
	}
	return flash.Success(c, "/admin/stories", "Story deleted.")
}

func (h *AdminController) HandleStoryPublish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	story, err := h.Repos.Story.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	story.Status = models.STORY_STATUS_PUBLISHED
	story.ScheduledFor = nil
	if err := h.Repos.Story.Update(story); err != nil {
		return err
	}
	return flash.Success(c, "/admin/stories", "Story published.")
}

// applyStoryForm copies the form onto story and stores an uploaded image.
// It returns a user-facing message when the input is rejected.
func (h *AdminController) applyStoryForm(c *fiber.Ctx, story *models.Story) string {
	var form storyForm
	if err := c.BodyParser(&form); err != nil {
		return "Please check the story form."
	}
	if form.Status == "" {
		form.Status = models.STORY_STATUS_DRAFT
	}
	if validate.Struct(form) != nil {
		return "Title, summary and content are required."
	}

	var scheduled *time.Time
	if form.Status == models.STORY_STATUS_SCHEDULED {
		t, err := time.ParseInLocation(ScheduleLayout, form.ScheduledFor, time.UTC)
		if err != nil {
			return "Scheduled stories need a publish date and time."
		}
		scheduled = &t
	}

	story.Title = strings.TrimSpace(form.Title)
	story.Summary = strings.TrimSpace(form.Summary)
	story.Content = form.Content
	story.Category = strings.TrimSpace(form.Category)
	if story.Category == "" {
		story.Category = models.DefaultStoryCategory
	}
	story.Status = form.Status
	story.ScheduledFor = scheduled

	if url, msg := h.uploadImage(c, "image", "stories"); msg != "" {
		return msg
	} else if url != "" {
		story.ImageURL = url
	}
	return ""
}

// uploadImage stores the optional file field. An empty url with an empty
// message means no file was sent.
func (h *AdminController) uploadImage(c *fiber.Ctx, field, folder string) (string, string) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 {
		return "", ""
	}
	if h.Media == nil {
		return "", "Image uploads are not configured."
	}
	res, err := h.Media.SaveFile(c.UserContext(), folder, fh)
	if err != nil {
		log.Warnf("[MediaStore] upload %q failed: %v", fh.Filename, err)
		return "", "The image could not be uploaded: " + err.Error()
	}
	return res.URL, ""
}
