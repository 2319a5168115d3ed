package middleware

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/ourstoryourvoice/osov/internal/pkg/entitlements"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /signin with the
// current path as next otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/signin?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireRole lets through signed-in users holding one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return c.Redirect("/asignin?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
		}
		if !entitlements.Allowed(uc.Role, roles...) {
			return flash.Error(c, "/", "You do not have permission to access that page.")
		}
		return c.Next()
	}
}

// RequireCapability guards a single admin action.
func RequireCapability(capability entitlements.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return c.Redirect("/asignin?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
		}
		if !entitlements.Can(uc.Role, capability) {
			return flash.Error(c, "/admin", "Your role does not allow this action.")
		}
		return c.Next()
	}
}

// RequireAPISessionAuth returns JSON 401 instead of a redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
