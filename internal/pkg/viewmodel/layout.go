package viewmodel

import "github.com/gofiber/fiber/v2"

// Layout is the data every page hands to layouts/main
type Layout struct {
	Page          string
	Title         string
	FromProtected bool
	IsStaff       bool
	IsAdmin       bool
	Username      string
	Msg           fiber.Map
	CSRFToken     string
	SupportEmail  string
	HCaptchaKey   string
}
