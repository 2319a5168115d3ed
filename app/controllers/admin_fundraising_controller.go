package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
)

const recentDonationsShown = 3

type campaignForm struct {
	Title       string  `form:"title" validate:"required,max=100"`
	Description string  `form:"description"`
	GoalAmount  float64 `form:"goal_amount" validate:"gte=0"`
	IsActive    string  `form:"is_active"`
}

func (h *AdminController) HandleFundraising(c *fiber.Ctx) error {
	total, err := h.Repos.Donation.SumSuccess()
	if err != nil {
		return err
	}
	monthly, err := h.Repos.Donation.SumSuccessMonthly()
	if err != nil {
		return err
	}
	avg, err := h.Repos.Donation.AvgSuccessSince(h.now().Add(-30 * 24 * time.Hour))
	if err != nil {
		return err
	}
	active, err := h.Repos.Campaign.ListActive()
	if err != nil {
		return err
	}
	campaigns, err := h.Repos.Campaign.WithProgress(active)
	if err != nil {
		return err
	}
	recent, err := h.Repos.Donation.RecentSuccess(recentDonationsShown)
	if err != nil {
		return err
	}

	return h.render(c, "admin/fundraising", "Fundraising", fiber.Map{
		"TotalRaised":      total,
		"MonthlyRecurring": monthly,
		"AverageGift":      avg,
		"Campaigns":        campaigns,
		"Recent":           recent,
	})
}

func (h *AdminController) HandleCampaigns(c *fiber.Ctx) error {
	all, err := h.Repos.Campaign.ListAll()
	if err != nil {
		return err
	}
	campaigns, err := h.Repos.Campaign.WithProgress(all)
	if err != nil {
		return err
	}
	return h.render(c, "admin/campaigns", "Campaigns", fiber.Map{"Campaigns": campaigns})
}

func (h *AdminController) HandleCampaignEdit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := h.Repos.Campaign.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	return h.render(c, "admin/campaign_form", "Edit Campaign", fiber.Map{"Campaign": campaign})
}

func (h *AdminController) HandleCampaignCreate(c *fiber.Ctx) error {
	campaign := &models.Campaign{}
	if msg := applyCampaignForm(c, campaign); msg != "" {
		return flash.Error(c, "/admin/campaigns", msg)
	}
	if err := h.Repos.Campaign.Create(campaign); err != nil {
		log.Errorf("[Billing] create campaign failed: %v", err)
		return flash.Error(c, "/admin/campaigns", "Could not save the campaign.")
	}
	return flash.Success(c, "/admin/campaigns", "Campaign \""+campaign.Title+"\" created.")
}

func (h *AdminController) HandleCampaignUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := h.Repos.Campaign.GetByID(id)
	if err != nil {
		return notFoundOr(err)
	}
	back := fmt.Sprintf("/admin/campaigns/%d/edit", campaign.ID)
	if msg := applyCampaignForm(c, campaign); msg != "" {
		return flash.Error(c, back, msg)
	}
	if err := h.Repos.Campaign.Update(campaign); err != nil {
		log.Errorf("[Billing] update campaign %d failed: %v", campaign.ID, err)
		return flash.Error(c, back, "Could not save the campaign.")
	}
	return flash.Success(c, "/admin/campaigns", "Campaign updated.")
}

func (h *AdminController) HandleCampaignDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	used, err := h.Repos.Campaign.HasDonations(id)
	if err != nil {
		return err
	}
	if used {
		return flash.Error(c, "/admin/campaigns", "Cannot delete campaign with existing donations. Archive it instead.")
	}
	if err := h.Repos.Campaign.Delete(id); err != nil {
		return err
	}
	return flash.Success(c, "/admin/campaigns", "Campaign deleted.")
}

func applyCampaignForm(c *fiber.Ctx, campaign *models.Campaign) string {
	var form campaignForm
	if err := c.BodyParser(&form); err != nil {
		return "Please check the campaign form."
	}
	if validate.Struct(form) != nil {
		return "A title is required and the goal cannot be negative."
	}
	campaign.Title = strings.TrimSpace(form.Title)
	campaign.Description = form.Description
	campaign.GoalAmount = form.GoalAmount
	// unchecked boxes are not submitted at all
	campaign.IsActive = form.IsActive != ""
	return ""
}
