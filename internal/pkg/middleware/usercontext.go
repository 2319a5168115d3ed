package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ourstoryourvoice/osov/app/repository"
	appsession "github.com/ourstoryourvoice/osov/internal/pkg/session"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

// UserContext loads the signed-in user for every request. The role is read
// from the database so promotions take effect without a new login.
func UserContext(store *session.Store, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// goth keeps its own session on /auth/*
		if strings.HasPrefix(c.Path(), "/auth/") || strings.HasPrefix(c.Path(), "/static/") {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		userID := appsession.UserID(c, store)
		if userID == 0 {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		user, err := users.GetByID(userID)
		if err != nil {
			log.Warnf("[UserContext] user %d from session not found: %v", userID, err)
			_ = appsession.Logout(c, store)
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		usercontext.Set(c, usercontext.FromUser(user))
		return c.Next()
	}
}
