package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ourstoryourvoice/osov/internal/pkg/env"
	"github.com/ourstoryourvoice/osov/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", csrf.New(csrfConf))

	pages := h.ctrls.Pages
	group.Get("/", pages.HandleHome)
	group.Get("/about", pages.Static("pages/about", "About Us"))
	group.Get("/founder", pages.Static("pages/founder", "Our Founder"))
	group.Get("/mentorship", pages.Static("pages/mentorship", "Mentorship"))
	group.Get("/termsofservice", pages.Static("pages/terms", "Terms of Service"))
	group.Get("/privacypolicy", pages.Static("pages/privacy", "Privacy Policy"))
	group.Get("/community-qa", pages.HandleCommunityQA)

	// Auth
	auth := h.ctrls.Auth
	group.All("/signin", auth.HandleSignin)
	group.All("/signup", auth.HandleSignup)
	group.All("/asignin", auth.HandleAdminSignin)
	group.All("/forgot-password", auth.HandleForgotPassword)
	group.All("/reset-password/:token", auth.HandleResetPassword)
	group.Get("/logout", auth.HandleLogout)
	group.Get("/logouts", auth.HandleStaffLogout)

	// Stories
	group.Get("/stories", h.ctrls.Stories.HandleStories)
	group.Get("/story/:slug", h.ctrls.Stories.HandleStory)

	// Events
	events := h.ctrls.Events
	group.Get("/events", events.HandleEvents)
	group.Get("/event/:id", events.HandleEvent)
	group.Post("/event/:id/rsvp", events.HandleRSVP)
	group.Post("/events/unrsvp/:id", middleware.RequireAuth, events.HandleUnRSVP)

	// Applications
	apps := h.ctrls.Applications
	group.All("/volunteer", middleware.RequireAuth, apps.HandleVolunteer)
	group.Get("/volunteer/status", middleware.RequireAuth, apps.HandleVolunteerStatus)
	group.Get("/volunteer/success", middleware.RequireAuth, pages.Static("applications/volunteer_success", "Thank You"))
	group.All("/mentorship/apply", middleware.RequireAuth, apps.HandleMentorship)
	group.Get("/mentorship/success", middleware.RequireAuth, pages.Static("applications/mentorship_success", "Thank You"))
	group.All("/partner/apply", middleware.RequireAuth, apps.HandlePartner)
	group.Get("/partner/success", middleware.RequireAuth, pages.Static("applications/partner_success", "Thank You"))

	// Donations
	donations := h.ctrls.Donations
	group.Get("/campaigns", donations.HandleCampaigns)
	group.All("/donate", donations.HandleDonate)
	group.All("/donate/:campaign_id", donations.HandleDonate)
	group.Get("/donation/success", donations.HandleDonationSuccess)
	group.Get("/history", middleware.RequireAuth, donations.HandleHistory)
	group.Post("/cancel-subscription/:id", middleware.RequireAuth, donations.HandleCancelSubscription)

	// Contact + newsletter
	contact := h.ctrls.Contact
	group.Get("/contact", contact.HandleContactPage)
	group.Post("/contact", contact.HandleContact)
	group.Post("/newsletter/subscribe", contact.HandleNewsletterSubscribe)
	group.All("/newsletter/unsubscribe", contact.HandleNewsletterUnsubscribeForm)

	h.registerAdminRoutes(group)
}
