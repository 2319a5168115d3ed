package flash

import (
	"github.com/gofiber/fiber/v2"
	fiberflash "github.com/sujit-baniya/flash"
)

// Message types rendered by the layout
const (
	TypeError   = "error"
	TypeSuccess = "success"
	TypeInfo    = "info"
	TypeWarning = "warning"
)

// Error stores an error message in the flash cookie and redirects.
func Error(c *fiber.Ctx, path, message string) error {
	return fiberflash.WithError(c, fiber.Map{"type": TypeError, "message": message}).Redirect(path)
}

func Success(c *fiber.Ctx, path, message string) error {
	return fiberflash.WithSuccess(c, fiber.Map{"type": TypeSuccess, "message": message}).Redirect(path)
}

func Info(c *fiber.Ctx, path, message string) error {
	return fiberflash.WithInfo(c, fiber.Map{"type": TypeInfo, "message": message}).Redirect(path)
}

func Warning(c *fiber.Ctx, path, message string) error {
	return fiberflash.WithInfo(c, fiber.Map{"type": TypeWarning, "message": message}).Redirect(path)
}

// Get returns the message set by the previous request, or nil.
func Get(c *fiber.Ctx) fiber.Map {
	msg := fiberflash.Get(c)
	if len(msg) == 0 {
		return nil
	}
	return msg
}
