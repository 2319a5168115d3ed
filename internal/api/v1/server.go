package apiv1

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Liveness check
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// Active campaigns with their progress
	// (GET /campaigns)
	ListCampaigns(c *fiber.Ctx) error
	// One campaign with its progress
	// (GET /campaigns/{id})
	GetCampaign(c *fiber.Ctx, id uint) error
	// Upcoming published events, soonest first
	// (GET /events)
	ListEvents(c *fiber.Ctx, params ListEventsParams) error
	// This document as JSON
	// (GET /openapi.json)
	GetOpenAPI(c *fiber.Ctx) error
}

// ListEventsParams defines parameters for ListEvents.
type ListEventsParams struct {
	Limit int `query:"limit"`
}

// ServerInterfaceWrapper converts fiber contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return w.Handler.GetPing(c)
}

func (w *ServerInterfaceWrapper) ListCampaigns(c *fiber.Ctx) error {
	return w.Handler.ListCampaigns(c)
}

func (w *ServerInterfaceWrapper) GetCampaign(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(Error{Error: "bad_request", Message: "invalid format for parameter id"})
	}
	return w.Handler.GetCampaign(c, uint(id))
}

func (w *ServerInterfaceWrapper) ListEvents(c *fiber.Ctx) error {
	params := ListEventsParams{Limit: c.QueryInt("limit", defaultEventLimit)}
	return w.Handler.ListEvents(c, params)
}

func (w *ServerInterfaceWrapper) GetOpenAPI(c *fiber.Ctx) error {
	return w.Handler.GetOpenAPI(c)
}

// RegisterHandlers mounts every documented operation on router, each
// behind request validation against doc.
func RegisterHandlers(router fiber.Router, si ServerInterface, doc *openapi3.T) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.Get("/ping", validateRequest(doc, fiber.MethodGet, "/ping"), wrapper.GetPing)
	router.Get("/campaigns", validateRequest(doc, fiber.MethodGet, "/campaigns"), wrapper.ListCampaigns)
	router.Get("/campaigns/:id", validateRequest(doc, fiber.MethodGet, "/campaigns/{id}"), wrapper.GetCampaign)
	router.Get("/events", validateRequest(doc, fiber.MethodGet, "/events"), wrapper.ListEvents)
	router.Get("/openapi.json", validateRequest(doc, fiber.MethodGet, "/openapi.json"), wrapper.GetOpenAPI)
}
