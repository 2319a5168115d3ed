package usercontext

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ourstoryourvoice/osov/app/models"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint   `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// FromUser builds the context for a signed-in user.
func FromUser(u *models.User) UserContext {
	return UserContext{
		UserID:     u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role,
		IsLoggedIn: true,
	}
}

func (u UserContext) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u UserContext) IsAdmin() bool {
	return u.Role == models.ROLE_ADMIN
}

func (u UserContext) IsStaff() bool {
	return u.Role == models.ROLE_ADMIN || u.Role == models.ROLE_MODERATOR
}

// Set stores the context and the flags the templates read.
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(LocalsKey, u)
	c.Locals(KeyFromProtected, u.IsLoggedIn)
	c.Locals(KeyIsStaff, u.IsStaff())
}

// GetUserContext returns an anonymous context when none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
