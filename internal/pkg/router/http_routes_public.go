package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ourstoryourvoice/osov/app/controllers"
)

// registerPublicRoutes holds everything that must work without a CSRF
// token: health checks, provider callbacks and the Stripe webhook.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", controllers.HandleHealthz)

	// signature-verified in the controller
	app.Post("/webhooks/stripe", h.ctrls.Donations.HandleStripeWebhook)

	// Newsletter links arrive from mail clients
	app.Get("/newsletter/unsubscribe/:email", h.ctrls.Contact.HandleNewsletterUnsubscribe)

	// Social OAuth
	app.Get("/admin/login/google", h.ctrls.Auth.HandleAdminGoogleLogin)
	app.Get("/auth/:provider/callback", h.ctrls.Auth.HandleOAuthCallback)
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
}
