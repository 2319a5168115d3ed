package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/entitlements"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
	"github.com/ourstoryourvoice/osov/internal/pkg/utils"
)

const (
	dashboardUsersPerPage = 4
	newsletterBatchSize   = 50
)

// AdminController serves the staff area. Route guards decide who gets here;
// actions with their own capability check it again inside the handler.
type AdminController struct {
	*Services
}

type teamMember struct {
	models.User
	AvatarURL string
}

func (h *AdminController) HandleDashboard(c *fiber.Ctx) error {
	stats, err := h.Stats.GetDashboard(c.UserContext())
	if err != nil {
		return err
	}

	viewAll := c.Query("view") == "all"
	page := queryPage(c)
	var users []models.User
	if viewAll {
		users, err = h.Repos.User.ListAll()
	} else {
		users, err = h.Repos.User.List((page-1)*dashboardUsersPerPage, dashboardUsersPerPage)
	}
	if err != nil {
		return err
	}

	return h.render(c, "admin/dashboard", "Dashboard", fiber.Map{
		"Stats":      stats,
		"Users":      users,
		"ViewAll":    viewAll,
		"Page":       page,
		"TotalPages": totalPages(stats.TotalUsers, dashboardUsersPerPage),
	})
}

func (h *AdminController) HandleSettings(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	me, err := h.Repos.User.GetByID(uc.UserID)
	if err != nil {
		return err
	}
	maintenance, err := h.Repos.SiteConfig.IsMaintenanceMode()
	if err != nil {
		return err
	}
	supportEmail, err := h.Repos.SiteConfig.GetValue(models.CONFIG_SUPPORT_EMAIL)
	if err != nil {
		return err
	}
	if supportEmail == "" {
		supportEmail = models.DefaultSupportEmail
	}

	staff, err := h.Repos.User.ListStaff()
	if err != nil {
		return err
	}
	team := make([]teamMember, 0, len(staff))
	for _, u := range staff {
		team = append(team, teamMember{User: u, AvatarURL: utils.GetGravatarURL(u.Email, 80)})
	}

	return h.render(c, "admin/settings", "Settings", fiber.Map{
		"Me":              me,
		"MaintenanceMode": maintenance,
		"SupportEmail":    supportEmail,
		"Team":            team,
		"CanManageSite":   entitlements.Can(uc.Role, entitlements.ManageSite),
	})
}

// HandleSettingsPost dispatches on the submitted action.
func (h *AdminController) HandleSettingsPost(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	action := c.FormValue("action")

	switch action {
	case "update_profile":
		return h.updateProfile(c, uc)
	case "change_password":
		return h.changePassword(c, uc)
	}

	if !entitlements.Can(uc.Role, entitlements.ManageSite) {
		return flash.Error(c, "/admin/settings", "Only admins can change site settings.")
	}

	switch action {
	case "toggle_maintenance":
		on, err := h.Repos.SiteConfig.IsMaintenanceMode()
		if err != nil {
			return err
		}
		value := "true"
		if on {
			value = "false"
		}
		if err := h.Repos.SiteConfig.SetValue(models.CONFIG_MAINTENANCE_MODE, value); err != nil {
			return err
		}
		log.Infof("[Maintenance] user %d set maintenance_mode=%s", uc.UserID, value)
		if value == "true" {
			return flash.Warning(c, "/admin/settings", "Maintenance mode is now ON. Visitors see the maintenance page.")
		}
		return flash.Success(c, "/admin/settings", "Maintenance mode is now OFF.")

	case "update_support_email":
		email := models.NormalizeEmail(c.FormValue("support_email"))
		if validate.Var(email, "required,email") != nil {
			return flash.Error(c, "/admin/settings", "Please enter a valid support email.")
		}
		if err := h.Repos.SiteConfig.SetValue(models.CONFIG_SUPPORT_EMAIL, email); err != nil {
			return err
		}
		return flash.Success(c, "/admin/settings", "Support email updated.")

	case "invite_member":
		user, err := h.Repos.User.GetByEmail(c.FormValue("email"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return flash.Error(c, "/admin/settings", "No user with that email. They need to sign up first.")
		}
		if err != nil {
			return err
		}
		return h.promote(c, user, "/admin/settings")
	}

	return flash.Error(c, "/admin/settings", "Unknown action.")
}

func (h *AdminController) updateProfile(c *fiber.Ctx, uc usercontext.UserContext) error {
	me, err := h.Repos.User.GetByID(uc.UserID)
	if err != nil {
		return err
	}
	me.FirstName = strings.TrimSpace(c.FormValue("first_name"))
	me.LastName = strings.TrimSpace(c.FormValue("last_name"))
	if email := models.NormalizeEmail(c.FormValue("email")); email != "" && email != me.Email {
		if _, err := h.Repos.User.GetByEmail(email); err == nil {
			return flash.Error(c, "/admin/settings", "That email is already in use.")
		}
		me.Email = email
	}
	if err := me.Validate(); err != nil {
		return flash.Error(c, "/admin/settings", "Please check your profile details.")
	}
	if err := h.Repos.User.Update(me); err != nil {
		return err
	}
	return flash.Success(c, "/admin/settings", "Profile updated.")
}

func (h *AdminController) changePassword(c *fiber.Ctx, uc usercontext.UserContext) error {
	me, err := h.Repos.User.GetByID(uc.UserID)
	if err != nil {
		return err
	}
	if me.PasswordHash != "" && !me.CheckPassword(c.FormValue("current_password")) {
		return flash.Error(c, "/admin/settings", "Your current password is incorrect.")
	}
	password := c.FormValue("new_password")
	if password != c.FormValue("confirm_password") {
		return flash.Error(c, "/admin/settings", "Passwords do not match.")
	}
	if !ValidPassword(password) {
		return flash.Error(c, "/admin/settings", "Password must be at least 8 characters and include upper and lower case letters, a number and one of @$!%*?&.")
	}
	if err := me.SetPassword(password); err != nil {
		return err
	}
	if err := h.Repos.User.Update(me); err != nil {
		return err
	}
	return flash.Success(c, "/admin/settings", "Password changed.")
}

func (h *AdminController) HandlePromote(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.Repos.User.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return h.promote(c, user, "/admin/dashboard")
}

// promote makes a regular user a moderator. Staff keep their role.
func (h *AdminController) promote(c *fiber.Ctx, user *models.User, back string) error {
	if user.IsStaff() {
		return flash.Info(c, back, user.FullName()+" is already a team member.")
	}
	if err := h.Repos.User.UpdateRole(user.ID, models.ROLE_MODERATOR); err != nil {
		return err
	}
	log.Infof("[Admin] user %d promoted to moderator by %d", user.ID, usercontext.GetUserID(c))

	_ = h.deliver(c.UserContext(), mail.Message{
		To:      []string{user.Email},
		Subject: "You've been promoted to Moderator at OSOV",
	}, mail.Promotion(user.FirstName, h.Config.BaseURL+"/asignin"))

	return flash.Success(c, back, user.FullName()+" is now a moderator.")
}

func (h *AdminController) HandleNewsletter(c *fiber.Ctx) error {
	emails, err := h.Repos.Newsletter.ActiveEmails()
	if err != nil {
		return err
	}
	if c.Method() != fiber.MethodPost {
		return h.render(c, "admin/newsletter", "Newsletter", fiber.Map{"SubscriberCount": len(emails)})
	}

	subject := strings.TrimSpace(c.FormValue("subject"))
	body := strings.TrimSpace(c.FormValue("body"))
	if subject == "" || body == "" {
		return flash.Error(c, "/admin/newsletter", "Subject and message are required.")
	}
	if len(emails) == 0 {
		return flash.Info(c, "/admin/newsletter", "There are no active subscribers yet.")
	}

	unsubscribe := h.Config.BaseURL + "/newsletter/unsubscribe"
	queued := 0
	for start := 0; start < len(emails); start += newsletterBatchSize {
		end := start + newsletterBatchSize
		if end > len(emails) {
			end = len(emails)
		}
		err := h.deliver(c.UserContext(), mail.Message{
			Bcc:     emails[start:end],
			Subject: subject,
		}, mail.Newsletter(subject, body, unsubscribe))
		if err != nil {
			return flash.Error(c, "/admin/newsletter", "Sending failed after "+strconv.Itoa(queued)+" recipients. Please try again.")
		}
		queued = end
	}
	return flash.Success(c, "/admin/newsletter", "Newsletter queued for "+strconv.Itoa(queued)+" subscribers.")
}
