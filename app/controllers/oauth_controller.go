package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/oauth"
)

// keyAdminOAuth marks a Google round trip started from the admin sign-in
const keyAdminOAuth = "admin_oauth"

// HandleAdminGoogleLogin starts the Google flow for staff accounts.
func (h *AuthController) HandleAdminGoogleLogin(c *fiber.Ctx) error {
	if !oauth.Enabled() {
		return flash.Error(c, "/asignin", "Google sign-in is not available.")
	}
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set(keyAdminOAuth, true)
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect("/auth/google", fiber.StatusSeeOther)
}

// HandleOAuthCallback completes the Google flow. Members are created on first
// sign-in; the admin flow only accepts existing staff accounts.
func (h *AuthController) HandleOAuthCallback(c *fiber.Ctx) error {
	adminFlow := false
	if sess, err := h.Sessions.Get(c); err == nil {
		adminFlow, _ = sess.Get(keyAdminOAuth).(bool)
		sess.Delete(keyAdminOAuth)
		_ = sess.Save()
	}
	failPath := "/signin"
	if adminFlow {
		failPath = "/asignin"
	}

	gu, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("[OAuth] complete auth failed: %v", err)
		return flash.Error(c, failPath, "Google sign-in failed, please try again.")
	}
	if strings.TrimSpace(gu.Email) == "" {
		return flash.Error(c, failPath, "Your Google account did not share an email address.")
	}

	user, err := h.Repos.User.GetByEmail(gu.Email)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound) && !adminFlow:
		user, err = models.NewUser(firstNonEmpty(gu.FirstName, gu.Name, "Friend"), firstNonEmpty(gu.LastName, "-"), gu.Email, "")
		if err != nil {
			return flash.Error(c, failPath, "We could not create an account from your Google profile.")
		}
		if err := h.Repos.User.Create(user); err != nil {
			log.Errorf("[OAuth] create user failed: %v", err)
			return flash.Error(c, failPath, "We could not create an account from your Google profile.")
		}
		if h.Stats != nil {
			h.Stats.Invalidate(c.UserContext())
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return flash.Error(c, failPath, "No staff account exists for this Google address.")
	default:
		return err
	}

	if adminFlow && !user.IsStaff() {
		return flash.Error(c, failPath, "This account does not have admin access.")
	}

	if err := h.login(c, user); err != nil {
		log.Errorf("[OAuth] login for user %d failed: %v", user.ID, err)
		return flash.Error(c, failPath, "Something went wrong, please try again.")
	}

	if adminFlow {
		return flash.Success(c, "/admin/dashboard", "Welcome back, "+user.FirstName+"!")
	}
	return flash.Success(c, "/", "Welcome, "+user.FirstName+"!")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
