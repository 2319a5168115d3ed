package controllers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
)

const contactFailedMessage = "There was an issue sending your message. Please try again later or email us directly."

type ContactController struct {
	*Services
}

type contactForm struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email"`
	Topic   string `form:"topic" validate:"required,max=100"`
	Message string `form:"message" validate:"required"`
}

func (h *ContactController) HandleContactPage(c *fiber.Ctx) error {
	return h.render(c, "pages/contact", "Contact", nil)
}

// HandleContact mails the inquiry to the team with reply-to set to the
// sender, then confirms receipt to the sender.
func (h *ContactController) HandleContact(c *fiber.Ctx) error {
	// the form also sits on the about page; go back to where it was sent from
	back := "/contact"
	if u, err := url.Parse(c.Get(fiber.HeaderReferer)); err == nil && u.Path != "" {
		back = safeNext(u.Path, back)
	}

	if err := h.Captcha.Verify(c.UserContext(), c.FormValue("h-captcha-response")); err != nil {
		return flash.Error(c, back, "Captcha validation failed. Please try again.")
	}

	var form contactForm
	if err := c.BodyParser(&form); err != nil || validate.Struct(form) != nil {
		return flash.Error(c, back, "Please fill in all fields with a valid email address.")
	}
	form.Email = models.NormalizeEmail(form.Email)
	form.Topic = strings.TrimSpace(form.Topic)

	err := h.deliver(c.UserContext(), mail.Message{
		To:      []string{h.adminEmail()},
		ReplyTo: form.Email,
		Subject: "New Inquiry: " + form.Topic,
	}, mail.ContactInquiry(form.Name, form.Email, form.Topic, form.Message))
	if err != nil {
		return flash.Error(c, back, contactFailedMessage)
	}

	_ = h.deliver(c.UserContext(), mail.Message{
		To:      []string{form.Email},
		Subject: "We received your message",
	}, mail.ContactConfirmation(form.Name, form.Topic))

	return flash.Success(c, back, "Thank you for reaching out! We will get back to you soon.")
}

func (h *ContactController) adminEmail() string {
	if h.Config.AdminEmail != "" {
		return h.Config.AdminEmail
	}
	if v, err := h.Repos.SiteConfig.GetValue(models.CONFIG_SUPPORT_EMAIL); err == nil && v != "" {
		return v
	}
	return models.DefaultSupportEmail
}

func (h *ContactController) HandleNewsletterSubscribe(c *fiber.Ctx) error {
	email := models.NormalizeEmail(c.FormValue("email"))
	if validate.Var(email, "required,email") != nil {
		return flash.Error(c, "/", "Please enter a valid email address.")
	}

	created, err := h.Repos.Newsletter.Subscribe(email)
	if err != nil {
		log.Errorf("[Newsletter] subscribe %s: %v", email, err)
		return flash.Error(c, "/", "We could not subscribe you right now. Please try again.")
	}
	if !created {
		return flash.Info(c, "/", "You are already subscribed. Thank you!")
	}
	return flash.Success(c, "/", "Thanks for subscribing to our newsletter!")
}

func (h *ContactController) HandleNewsletterUnsubscribe(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return fiber.ErrNotFound
	}
	if err := h.Repos.Newsletter.Unsubscribe(email); err != nil {
		return err
	}
	return flash.Info(c, "/", "You have been unsubscribed from our newsletter.")
}

// HandleNewsletterUnsubscribeForm backs the generic link in newsletter
// footers, where the recipient address is not known.
func (h *ContactController) HandleNewsletterUnsubscribeForm(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return h.render(c, "pages/unsubscribe", "Unsubscribe", nil)
	}
	email := models.NormalizeEmail(c.FormValue("email"))
	if validate.Var(email, "required,email") != nil {
		return flash.Error(c, "/newsletter/unsubscribe", "Please enter a valid email address.")
	}
	if err := h.Repos.Newsletter.Unsubscribe(email); err != nil {
		return err
	}
	return flash.Info(c, "/", "You have been unsubscribed from our newsletter.")
}
