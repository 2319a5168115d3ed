package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ourstoryourvoice/osov/app/controllers"
	"github.com/ourstoryourvoice/osov/internal/pkg/middleware"
)

type HttpRouter struct {
	services *controllers.Services
	ctrls    *controllers.Controllers
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Use(middleware.UserContext(h.services.Sessions, h.services.Repos.User))
	app.Use(middleware.MaintenanceGate(h.services.Repos.SiteConfig))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{services: deps.Services, ctrls: deps.Controllers}
}
