package controllers

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

const (
	minVolunteerAge = 15
	adultAge        = 18
)

var validate = validator.New()

type ApplicationController struct {
	*Services
}

type volunteerForm struct {
	Phone         string `form:"phone" validate:"required,max=20"`
	Country       string `form:"country" validate:"required,max=50"`
	DateOfBirth   string `form:"dob" validate:"required"`
	Motivation    string `form:"motivation" validate:"required"`
	Skills        string `form:"skills" validate:"required"`
	ParentConsent string `form:"parent_consent"`
}

type mentorshipForm struct {
	ProgramTrack       string `form:"program_track" validate:"oneof=youth_school idp_reintegration"`
	ChildFirstName     string `form:"child_first_name"`
	ChildLastName      string `form:"child_last_name"`
	GuardianName       string `form:"guardian_name"`
	GradeLevel         string `form:"grade_level"`
	SchoolName         string `form:"school_name"`
	ParentEmail        string `form:"parent_email"`
	VocationalInterest string `form:"vocational_interest"`
	BusinessIdea       string `form:"business_idea"`
	Goals              string `form:"goals"`
}

type partnerForm struct {
	OrgName         string `form:"org_name" validate:"required,max=150"`
	OrgType         string `form:"org_type" validate:"required,max=50"`
	Website         string `form:"website" validate:"omitempty,max=200"`
	PartnershipType string `form:"partnership_type" validate:"required,max=50"`
	ProposalDetails string `form:"proposal_details" validate:"required"`
}

// ageOn returns full years between birth and now.
func ageOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func (h *ApplicationController) HandleVolunteer(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	existing, err := h.Repos.Application.GetVolunteerByUser(uc.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return c.Redirect("/volunteer/status", fiber.StatusSeeOther)
	}
	if c.Method() != fiber.MethodPost {
		return h.render(c, "applications/volunteer", "Volunteer", nil)
	}

	var form volunteerForm
	if err := c.BodyParser(&form); err != nil || validate.Struct(form) != nil {
		return flash.Error(c, "/volunteer", "Please fill in all required fields.")
	}
	dob, err := time.Parse("2006-01-02", form.DateOfBirth)
	if err != nil {
		return flash.Error(c, "/volunteer", "Please enter a valid date of birth.")
	}

	age := ageOn(dob, h.now())
	if age < minVolunteerAge {
		return flash.Error(c, "/volunteer", "Volunteers must be at least 15 years old.")
	}
	consent := form.ParentConsent != ""
	if age < adultAge && !consent {
		return flash.Error(c, "/volunteer", "Volunteers under 18 need consent from a parent or guardian.")
	}

	app := &models.VolunteerApplication{
		UserID:        uc.UserID,
		Phone:         strings.TrimSpace(form.Phone),
		Country:       strings.TrimSpace(form.Country),
		DateOfBirth:   dob,
		IsUnder18:     age < adultAge,
		ParentConsent: consent,
		Motivation:    strings.TrimSpace(form.Motivation),
		Skills:        strings.TrimSpace(form.Skills),
		Status:        models.APPLICATION_STATUS_PENDING,
	}
	if err := h.Repos.Application.CreateVolunteer(app); err != nil {
		log.Errorf("[Applications] volunteer for user %d: %v", uc.UserID, err)
		return flash.Error(c, "/volunteer", "We could not save your application, please try again.")
	}
	return c.Redirect("/volunteer/success", fiber.StatusSeeOther)
}

func (h *ApplicationController) HandleVolunteerStatus(c *fiber.Ctx) error {
	app, err := h.Repos.Application.GetVolunteerByUser(usercontext.GetUserID(c))
	if err != nil {
		return err
	}
	if app == nil {
		return c.Redirect("/volunteer", fiber.StatusSeeOther)
	}
	return h.render(c, "applications/status", "Application Status", fiber.Map{
		"Kind":   "Volunteer",
		"Status": app.Status,
		"Since":  app.CreatedAt,
	})
}

func (h *ApplicationController) HandleMentorship(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	existing, err := h.Repos.Application.GetMentorshipByUser(uc.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return h.render(c, "applications/status", "Application Status", fiber.Map{
			"Kind":   "Mentorship",
			"Status": existing.Status,
			"Since":  existing.CreatedAt,
		})
	}
	if c.Method() != fiber.MethodPost {
		return h.render(c, "applications/mentorship", "Mentorship Application", nil)
	}

	var form mentorshipForm
	if err := c.BodyParser(&form); err != nil || validate.Struct(form) != nil {
		return flash.Error(c, "/mentorship/apply", "Please choose a program track.")
	}
	if msg := form.missing(); msg != "" {
		return flash.Error(c, "/mentorship/apply", msg)
	}

	app := &models.MentorshipApplication{
		UserID:             uc.UserID,
		ProgramTrack:       form.ProgramTrack,
		ChildFirstName:     strings.TrimSpace(form.ChildFirstName),
		ChildLastName:      strings.TrimSpace(form.ChildLastName),
		GuardianName:       strings.TrimSpace(form.GuardianName),
		GradeLevel:         strings.TrimSpace(form.GradeLevel),
		SchoolName:         strings.TrimSpace(form.SchoolName),
		ParentEmail:        models.NormalizeEmail(form.ParentEmail),
		VocationalInterest: strings.TrimSpace(form.VocationalInterest),
		BusinessIdea:       strings.TrimSpace(form.BusinessIdea),
		Goals:              strings.TrimSpace(form.Goals),
		Status:             models.APPLICATION_STATUS_PENDING,
	}
	if err := h.Repos.Application.CreateMentorship(app); err != nil {
		log.Errorf("[Applications] mentorship for user %d: %v", uc.UserID, err)
		return flash.Error(c, "/mentorship/apply", "We could not save your application, please try again.")
	}
	return c.Redirect("/mentorship/success", fiber.StatusSeeOther)
}

// missing names the first track-specific field left blank.
func (f mentorshipForm) missing() string {
	blank := func(vals ...string) bool {
		for _, v := range vals {
			if strings.TrimSpace(v) == "" {
				return true
			}
		}
		return false
	}
	switch f.ProgramTrack {
	case models.MENTORSHIP_TRACK_YOUTH_SCHOOL:
		if blank(f.ChildFirstName, f.ChildLastName, f.GuardianName, f.GradeLevel, f.SchoolName, f.ParentEmail) {
			return "Please complete the student and guardian details."
		}
	case models.MENTORSHIP_TRACK_IDP:
		if blank(f.VocationalInterest, f.BusinessIdea) {
			return "Please describe your vocational interest and business idea."
		}
	}
	return ""
}

func (h *ApplicationController) HandlePartner(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	existing, err := h.Repos.Application.GetPartnerByUser(uc.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return h.render(c, "applications/status", "Application Status", fiber.Map{
			"Kind":   "Partnership",
			"Status": existing.Status,
			"Since":  existing.CreatedAt,
		})
	}
	if c.Method() != fiber.MethodPost {
		return h.render(c, "applications/partner", "Partner With Us", nil)
	}

	var form partnerForm
	if err := c.BodyParser(&form); err != nil || validate.Struct(form) != nil {
		return flash.Error(c, "/partner/apply", "Please fill in all required fields.")
	}

	app := &models.PartnerApplication{
		UserID:          uc.UserID,
		OrgName:         strings.TrimSpace(form.OrgName),
		OrgType:         strings.TrimSpace(form.OrgType),
		Website:         strings.TrimSpace(form.Website),
		PartnershipType: strings.TrimSpace(form.PartnershipType),
		ProposalDetails: strings.TrimSpace(form.ProposalDetails),
		Status:          models.APPLICATION_STATUS_PENDING,
	}
	if err := h.Repos.Application.CreatePartner(app); err != nil {
		log.Errorf("[Applications] partner for user %d: %v", uc.UserID, err)
		return flash.Error(c, "/partner/apply", "We could not save your application, please try again.")
	}
	if h.Stats != nil {
		h.Stats.Invalidate(c.UserContext())
	}
	return c.Redirect("/partner/success", fiber.StatusSeeOther)
}
