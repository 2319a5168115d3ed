package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

var errorViews = map[int]string{
	fiber.StatusNotFound:            "errors/404",
	fiber.StatusMethodNotAllowed:    "errors/405",
	fiber.StatusInternalServerError: "errors/500",
	fiber.StatusServiceUnavailable:  "maintenance",
}

var errorTitles = map[int]string{
	fiber.StatusNotFound:            "Page Not Found",
	fiber.StatusMethodNotAllowed:    "Method Not Allowed",
	fiber.StatusInternalServerError: "Something Went Wrong",
	fiber.StatusServiceUnavailable:  "Down for Maintenance",
}

// ErrorHandler renders HTML error pages for the site and JSON for machine
// clients under /api and /webhooks.
func (s *Services) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := ""
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError && code != fiber.StatusServiceUnavailable {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		message = ""
	}

	c.Status(code)
	if strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/") {
		if message == "" {
			message = fiber.ErrInternalServerError.Message
		}
		return c.JSON(fiber.Map{"error": message})
	}

	view, ok := errorViews[code]
	if !ok {
		view = errorViews[fiber.StatusInternalServerError]
		if code < fiber.StatusInternalServerError {
			view = errorViews[fiber.StatusNotFound]
		}
	}
	title := errorTitles[code]
	if title == "" {
		title = "Error"
	}

	if rerr := s.render(c, view, title, fiber.Map{"Code": code, "Message": message}); rerr != nil {
		log.Errorf("rendering %s failed: %v", view, rerr)
		return c.Status(code).SendString(title)
	}
	return nil
}
