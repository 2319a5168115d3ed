package controllers

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/security"
	"github.com/ourstoryourvoice/osov/internal/pkg/session"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

const forgotPasswordMessage = "If that email exists, we have sent a link."

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

// ValidPassword requires eight or more characters with a lower case letter,
// an upper case letter, a digit and one of @$!%*?&, and nothing else.
func ValidPassword(pw string) bool {
	return passwordCharset.MatchString(pw) &&
		passwordLower.MatchString(pw) &&
		passwordUpper.MatchString(pw) &&
		passwordDigit.MatchString(pw) &&
		passwordSpecial.MatchString(pw)
}

type AuthController struct {
	*Services
}

type signupForm struct {
	FirstName       string `form:"first_name"`
	LastName        string `form:"last_name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (h *AuthController) HandleSignin(c *fiber.Ctx) error {
	next := safeNext(c.Query("next"), "/")
	if usercontext.IsLoggedIn(c) {
		return c.Redirect(next, fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return h.render(c, "auth/signin", "Sign In", fiber.Map{"Next": next})
	}

	next = safeNext(c.FormValue("next"), "/")
	user, err := h.Repos.User.GetByEmail(c.FormValue("email"))
	if err != nil || !user.CheckPassword(c.FormValue("password")) {
		return flash.Error(c, "/signin?next="+url.QueryEscape(next), "Invalid email or password.")
	}

	if err := h.login(c, user); err != nil {
		log.Errorf("[Auth] login for user %d failed: %v", user.ID, err)
		return flash.Error(c, "/signin", "Something went wrong, please try again.")
	}
	return flash.Success(c, next, "Welcome back, "+user.FirstName+"!")
}

func (h *AuthController) HandleSignup(c *fiber.Ctx) error {
	if usercontext.IsLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	if c.Method() != fiber.MethodPost {
		return h.render(c, "auth/signup", "Sign Up", nil)
	}

	if err := h.Captcha.Verify(c.UserContext(), c.FormValue("h-captcha-response")); err != nil {
		log.Warnf("[Auth] captcha rejected signup: %v", err)
		return flash.Error(c, "/signup", "Captcha validation failed. Please try again.")
	}

	var form signupForm
	if err := c.BodyParser(&form); err != nil {
		return flash.Error(c, "/signup", "Please fill in all fields.")
	}
	if strings.TrimSpace(form.FirstName) == "" || strings.TrimSpace(form.LastName) == "" ||
		strings.TrimSpace(form.Email) == "" || form.Password == "" {
		return flash.Error(c, "/signup", "Please fill in all fields.")
	}
	if form.Password != form.ConfirmPassword {
		return flash.Error(c, "/signup", "Passwords do not match.")
	}
	if !ValidPassword(form.Password) {
		return flash.Error(c, "/signup", "Password must be at least 8 characters and include upper and lower case letters, a number and one of @$!%*?&.")
	}

	if _, err := h.Repos.User.GetByEmail(form.Email); err == nil {
		return flash.Info(c, "/signin", "An account with that email already exists. Please sign in.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user, err := models.NewUser(form.FirstName, form.LastName, form.Email, form.Password)
	if err != nil {
		return flash.Error(c, "/signup", "Please check your details and try again.")
	}
	if err := h.Repos.User.Create(user); err != nil {
		log.Errorf("[Auth] create user failed: %v", err)
		return flash.Error(c, "/signup", "Could not create your account, please try again.")
	}
	if h.Stats != nil {
		h.Stats.Invalidate(c.UserContext())
	}

	if err := h.login(c, user); err != nil {
		return flash.Success(c, "/signin", "Account created. Please sign in.")
	}
	return flash.Success(c, "/", "Welcome to Our Story Our Voice!")
}

func (h *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Logout(c, h.Sessions); err != nil {
		log.Warnf("[Auth] logout: %v", err)
	}
	return flash.Success(c, "/", "You have been logged out.")
}

// HandleStaffLogout ends an admin session and returns to the admin sign-in.
func (h *AuthController) HandleStaffLogout(c *fiber.Ctx) error {
	if err := session.Logout(c, h.Sessions); err != nil {
		log.Warnf("[Auth] staff logout: %v", err)
	}
	return flash.Success(c, "/asignin", "You have been logged out.")
}

// HandleAdminSignin accepts password logins from staff accounts only.
func (h *AuthController) HandleAdminSignin(c *fiber.Ctx) error {
	next := safeNext(c.Query("next"), "/admin/dashboard")
	if usercontext.GetUserContext(c).IsStaff() {
		return c.Redirect(next, fiber.StatusSeeOther)
	}
	if c.Method() != fiber.MethodPost {
		return h.render(c, "auth/asignin", "Admin Sign In", fiber.Map{"Next": next})
	}

	next = safeNext(c.FormValue("next"), "/admin/dashboard")
	user, err := h.Repos.User.GetByEmail(c.FormValue("email"))
	if err != nil || !user.CheckPassword(c.FormValue("password")) {
		return flash.Error(c, "/asignin", "Invalid email or password.")
	}
	if !user.IsStaff() {
		return flash.Error(c, "/asignin", "This account does not have admin access.")
	}
	if err := h.login(c, user); err != nil {
		log.Errorf("[Auth] admin login for user %d failed: %v", user.ID, err)
		return flash.Error(c, "/asignin", "Something went wrong, please try again.")
	}
	return flash.Success(c, next, "Welcome back, "+user.FirstName+"!")
}

func (h *AuthController) HandleForgotPassword(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return h.render(c, "auth/forgot_password", "Forgot Password", nil)
	}

	user, err := h.Repos.User.GetByEmail(c.FormValue("email"))
	if err == nil {
		token, err := security.GenerateResetToken(user.ID, user.PasswordHash, h.Config.SecretKey, h.now())
		if err != nil {
			log.Errorf("[Auth] reset token for user %d: %v", user.ID, err)
		} else {
			link := h.Config.BaseURL + "/reset-password/" + token
			_ = h.deliver(c.UserContext(), mail.Message{
				To:      []string{user.Email},
				Subject: "Password Reset Request",
			}, mail.PasswordReset(user.FirstName, link))
		}
	}

	// same answer whether or not the account exists
	return flash.Info(c, "/signin", forgotPasswordMessage)
}

func (h *AuthController) HandleResetPassword(c *fiber.Ctx) error {
	token := c.Params("token")
	userID, claims, err := security.ParseResetToken(token, h.Config.SecretKey, h.now())
	if err != nil {
		return flash.Error(c, "/forgot-password", "The reset link is invalid or has expired.")
	}
	user, err := h.Repos.User.GetByID(userID)
	if err != nil || !claims.MatchesPassword(user.PasswordHash) {
		return flash.Error(c, "/forgot-password", "The reset link is invalid or has expired.")
	}

	if c.Method() != fiber.MethodPost {
		return h.render(c, "auth/reset_password", "Reset Password", fiber.Map{"Token": token})
	}

	password := c.FormValue("password")
	if password != c.FormValue("confirm_password") {
		return flash.Error(c, "/reset-password/"+token, "Passwords do not match.")
	}
	if !ValidPassword(password) {
		return flash.Error(c, "/reset-password/"+token, "Password must be at least 8 characters and include upper and lower case letters, a number and one of @$!%*?&.")
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := h.Repos.User.Update(user); err != nil {
		return err
	}
	return flash.Success(c, "/signin", "Your password has been updated. Please sign in.")
}

func (h *AuthController) login(c *fiber.Ctx, user *models.User) error {
	if err := session.Login(c, h.Sessions, user.ID, user.Role); err != nil {
		return err
	}
	if err := h.Repos.User.TouchLogin(user); err != nil {
		log.Warnf("[Auth] last_login for user %d: %v", user.ID, err)
	}
	return nil
}
