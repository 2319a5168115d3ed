package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
	"github.com/ourstoryourvoice/osov/internal/pkg/viewmodel"
)

const mainLayout = "layouts/main"

// render wraps the page data with the layout every view extends.
func (s *Services) render(c *fiber.Ctx, view, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	uc := usercontext.GetUserContext(c)

	csrfToken, _ := c.Locals("csrf").(string)
	layout := viewmodel.Layout{
		Page:          view,
		Title:         title,
		FromProtected: uc.IsLoggedIn,
		IsStaff:       uc.IsStaff(),
		IsAdmin:       uc.IsAdmin(),
		Username:      uc.FullName(),
		Msg:           flash.Get(c),
		CSRFToken:     csrfToken,
	}
	if s.Captcha.Enabled() {
		layout.HCaptchaKey = s.Captcha.SiteKey
	}
	if s.Repos != nil {
		if email, err := s.Repos.SiteConfig.GetValue(models.CONFIG_SUPPORT_EMAIL); err == nil && email != "" {
			layout.SupportEmail = email
		} else {
			layout.SupportEmail = models.DefaultSupportEmail
		}
	}

	data["Layout"] = layout
	data["User"] = uc
	return c.Render(view, data, mainLayout)
}

// safeNext only accepts local paths, never scheme-relative ones.
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

func queryPage(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		return 1
	}
	return page
}

// notFoundOr maps a missing row to 404 and everything else to 500.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.ErrNotFound
	}
	return err
}

func totalPages(total int64, perPage int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// deliver renders the body and hands the message to the queue. Failures are
// logged only; a mail problem never undoes the action that triggered it.
func (s *Services) deliver(ctx context.Context, msg mail.Message, body templ.Component) error {
	if s.Mail == nil {
		return errors.New("mail is not configured")
	}
	html, err := mail.Render(ctx, body)
	if err != nil {
		log.Errorf("[Mail] rendering %q failed: %v", msg.Subject, err)
		return err
	}
	msg.HTML = html
	if err := s.Mail.Send(ctx, msg); err != nil {
		log.Errorf("[Mail] queueing %q failed: %v", msg.Subject, err)
		return err
	}
	return nil
}
