package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/repository"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

// MaintenanceMessage is shown on the 503 page.
const MaintenanceMessage = "We are currently performing scheduled maintenance. Please check back soon."

var maintenanceExempt = []string{"/static", "/admin", "/auth", "/asignin", "/webhooks", "/healthz"}

// MaintenanceGate answers 503 to everyone but staff while maintenance_mode is
// on. Must run after UserContext.
func MaintenanceGate(cfg repository.SiteConfigRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if maintenanceExemptPath(c.Path()) {
			return c.Next()
		}

		on, err := cfg.IsMaintenanceMode()
		if err != nil {
			// fail open, the config table is unreadable
			log.Errorf("[Maintenance] reading site config: %v", err)
			return c.Next()
		}
		if !on {
			return c.Next()
		}

		if usercontext.GetUserContext(c).IsStaff() {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusServiceUnavailable, MaintenanceMessage)
	}
}

func maintenanceExemptPath(path string) bool {
	for _, prefix := range maintenanceExempt {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
