package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/entitlements"
	"github.com/ourstoryourvoice/osov/internal/pkg/middleware"
)

// registerAdminRoutes mounts the staff area below the CSRF group. Every
// route needs a staff role; single actions are narrowed by capability.
func (h HttpRouter) registerAdminRoutes(group fiber.Router) {
	admin := h.ctrls.Admin
	adminGroup := group.Group("/admin", middleware.RequireRole(models.ROLE_MODERATOR, models.ROLE_ADMIN))

	adminGroup.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/admin/dashboard") })
	adminGroup.Get("/dashboard", admin.HandleDashboard)
	adminGroup.Get("/settings", admin.HandleSettings)
	adminGroup.Post("/settings", admin.HandleSettingsPost)

	site := middleware.RequireCapability(entitlements.ManageSite)
	adminGroup.Post("/promote/:id", site, admin.HandlePromote)
	adminGroup.All("/newsletter", site, admin.HandleNewsletter)

	// Stories + events
	content := middleware.RequireCapability(entitlements.ManageContent)
	adminGroup.Get("/stories", content, admin.HandleStories)
	adminGroup.Get("/stories/new", content, admin.HandleStoryNew)
	adminGroup.Post("/stories", content, admin.HandleStoryCreate)
	adminGroup.Get("/stories/:id/edit", content, admin.HandleStoryEdit)
	adminGroup.Post("/stories/:id", content, admin.HandleStoryUpdate)
	adminGroup.Post("/stories/:id/delete", content, admin.HandleStoryDelete)
	adminGroup.Post("/stories/:id/publish", content, admin.HandleStoryPublish)

	adminGroup.Get("/events", content, admin.HandleEvents)
	adminGroup.Get("/events/new", content, admin.HandleEventNew)
	adminGroup.Post("/events", content, admin.HandleEventCreate)
	adminGroup.Get("/events/:id/edit", content, admin.HandleEventEdit)
	adminGroup.Post("/events/:id", content, admin.HandleEventUpdate)
	adminGroup.Post("/events/:id/delete", content, admin.HandleEventDelete)

	// Approvals
	review := middleware.RequireCapability(entitlements.ReviewApplications)
	adminGroup.Get("/approvals", review, admin.HandleApprovals)
	adminGroup.Post("/volunteer/:id/:action", review, admin.HandleVolunteerDecision)
	adminGroup.Post("/partner/:id/end_contract", review, admin.HandleEndPartnerContract)
	adminGroup.Post("/partner/:id/:action", review, admin.HandlePartnerDecision)
	adminGroup.Post("/mentorship/:id/:action", review, admin.HandleMentorshipDecision)

	// Fundraising + campaigns
	adminGroup.Get("/fundraising", middleware.RequireCapability(entitlements.ViewFundraising), admin.HandleFundraising)
	campaigns := middleware.RequireCapability(entitlements.ManageCampaigns)
	adminGroup.Get("/campaigns", campaigns, admin.HandleCampaigns)
	adminGroup.Post("/campaigns", campaigns, admin.HandleCampaignCreate)
	adminGroup.Get("/campaigns/:id/edit", campaigns, admin.HandleCampaignEdit)
	adminGroup.Post("/campaigns/:id", campaigns, admin.HandleCampaignUpdate)
	adminGroup.Post("/campaigns/:id/delete", campaigns, admin.HandleCampaignDelete)

	// CSV exports
	export := middleware.RequireCapability(entitlements.Export)
	adminGroup.Get("/export/donations", export, admin.HandleExportDonations)
	adminGroup.Get("/export/partners", export, admin.HandleExportPartners)
	adminGroup.Get("/export/volunteers", export, admin.HandleExportVolunteers)
	adminGroup.Get("/export/mentorships", export, admin.HandleExportMentorships)
}
