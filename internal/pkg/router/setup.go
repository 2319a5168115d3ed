package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ourstoryourvoice/osov/app/controllers"
	apiv1 "github.com/ourstoryourvoice/osov/internal/api/v1"
)

// Router installs one family of routes.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps is everything the routes dispatch to.
type Deps struct {
	Services    *controllers.Services
	Controllers *controllers.Controllers
	API         *apiv1.APIServer
}

func InstallRouter(app *fiber.App, deps Deps) {
	// HttpRouter goes first: it installs the global user context and
	// maintenance middleware the API routes rely on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps.API))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
