package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
)

const (
	pendingPerPage   = 5
	activePartnerCap = 50
	recentApproved   = 5

	approvalsPath = "/admin/approvals"
)

// approvalStatus maps the :action path segment to the stored status.
var approvalStatus = map[string]string{
	"approve": models.APPLICATION_STATUS_APPROVED,
	"reject":  models.APPLICATION_STATUS_REJECTED,
}

func (h *AdminController) HandleApprovals(c *fiber.Ctx) error {
	stats, err := h.Repos.Application.Stats()
	if err != nil {
		return err
	}

	pp := c.QueryInt("pp", 1)
	if pp < 1 {
		pp = 1
	}
	vp := c.QueryInt("vp", 1)
	if vp < 1 {
		vp = 1
	}

	partners, partnerTotal, err := h.Repos.Application.ListPartnersByStatus(models.APPLICATION_STATUS_PENDING, (pp-1)*pendingPerPage, pendingPerPage)
	if err != nil {
		return err
	}
	volunteers, volunteerTotal, err := h.Repos.Application.ListVolunteersByStatus(models.APPLICATION_STATUS_PENDING, (vp-1)*pendingPerPage, pendingPerPage)
	if err != nil {
		return err
	}
	active, _, err := h.Repos.Application.ListPartnersByStatus(models.APPLICATION_STATUS_APPROVED, 0, activePartnerCap)
	if err != nil {
		return err
	}
	approvedVolunteers, _, err := h.Repos.Application.ListVolunteersByStatus(models.APPLICATION_STATUS_APPROVED, 0, recentApproved)
	if err != nil {
		return err
	}
	mentorships, err := h.Repos.Application.RecentMentorships(recentApproved)
	if err != nil {
		return err
	}

	return h.render(c, "admin/approvals", "Approvals", fiber.Map{
		"Stats":             stats,
		"PendingPartners":   partners,
		"PartnerPage":       pp,
		"PartnerPages":      totalPages(partnerTotal, pendingPerPage),
		"PendingVolunteers": volunteers,
		"VolunteerPage":     vp,
		"VolunteerPages":    totalPages(volunteerTotal, pendingPerPage),
		"ActivePartners":    active,
		"RecentVolunteers":  approvedVolunteers,
		"RecentMentorships": mentorships,
	})
}

func (h *AdminController) HandleVolunteerDecision(c *fiber.Ctx) error {
	id, status, err := decision(c)
	if err != nil {
		return err
	}
	app, err := h.Repos.Application.GetVolunteer(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := h.Repos.Application.UpdateVolunteerStatus(id, status); err != nil {
		return err
	}
	h.notifyApproval(c, status, &app.User, "Volunteer")
	return flash.Success(c, approvalsPath, "Volunteer application "+status+".")
}

func (h *AdminController) HandlePartnerDecision(c *fiber.Ctx) error {
	id, status, err := decision(c)
	if err != nil {
		return err
	}
	app, err := h.Repos.Application.GetPartner(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := h.Repos.Application.UpdatePartnerStatus(id, status); err != nil {
		return err
	}
	h.Stats.Invalidate(c.UserContext())
	h.notifyApproval(c, status, &app.User, "Partner")
	return flash.Success(c, approvalsPath, app.OrgName+" "+status+".")
}

func (h *AdminController) HandleEndPartnerContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	app, err := h.Repos.Application.GetPartner(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := h.Repos.Application.UpdatePartnerStatus(id, models.APPLICATION_STATUS_ARCHIVED); err != nil {
		return err
	}
	log.Infof("[Applications] partnership with %s ended", app.OrgName)
	return flash.Info(c, approvalsPath, "Partnership with "+app.OrgName+" archived.")
}

func (h *AdminController) HandleMentorshipDecision(c *fiber.Ctx) error {
	id, status, err := decision(c)
	if err != nil {
		return err
	}
	app, err := h.Repos.Application.GetMentorship(id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := h.Repos.Application.UpdateMentorshipStatus(id, status); err != nil {
		return err
	}
	h.notifyApproval(c, status, &app.User, "Mentorship")
	return flash.Success(c, approvalsPath, "Mentorship application "+status+".")
}

func decision(c *fiber.Ctx) (uint, string, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return 0, "", err
	}
	status, ok := approvalStatus[c.Params("action")]
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusBadRequest, "unknown action")
	}
	return id, status, nil
}

func (h *AdminController) notifyApproval(c *fiber.Ctx, status string, applicant *models.User, role string) {
	if status != models.APPLICATION_STATUS_APPROVED || applicant.Email == "" {
		return
	}
	log.Infof("[Applications] %s application of user %d approved", role, applicant.ID)
	_ = h.deliver(c.UserContext(), mail.Message{
		To:      []string{applicant.Email},
		Subject: "Application Approved: " + role,
	}, mail.ApplicationApproved(applicant.FirstName, role))
}
