package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/billing"
	"github.com/ourstoryourvoice/osov/internal/pkg/flash"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

type DonationController struct {
	*Services
}

type donateForm struct {
	Amount    string `form:"amount"`
	Frequency string `form:"frequency"`
	Name      string `form:"name"`
	Email     string `form:"email"`
}

func (h *DonationController) HandleCampaigns(c *fiber.Ctx) error {
	campaigns, err := h.Repos.Campaign.ListActive()
	if err != nil {
		return err
	}
	progress, err := h.Repos.Campaign.WithProgress(campaigns)
	if err != nil {
		return err
	}
	return h.render(c, "donations/campaigns", "Campaigns", fiber.Map{"Campaigns": progress})
}

// HandleDonate shows the form, with the donor's live monthly gift if there
// is one, and on POST opens a hosted checkout session. The Pending row exists
// before the donor leaves the site.
func (h *DonationController) HandleDonate(c *fiber.Ctx) error {
	var campaign *models.Campaign
	back := "/donate"
	if raw := c.Params("campaign_id"); raw != "" {
		id, err := paramID(c, "campaign_id")
		if err != nil {
			return err
		}
		campaign, err = h.Repos.Campaign.GetByID(id)
		if err != nil {
			return notFoundOr(err)
		}
		if !campaign.IsActive {
			return flash.Info(c, "/campaigns", "This campaign is no longer accepting donations.")
		}
		back = fmt.Sprintf("/donate/%d", campaign.ID)
	}

	if c.Method() != fiber.MethodPost {
		active, err := h.Billing.ActiveSubscription(usercontext.GetUserID(c))
		if err != nil {
			return err
		}
		return h.render(c, "donations/donate", "Donate", fiber.Map{
			"Campaign":           campaign,
			"ActiveSubscription": active,
		})
	}

	var form donateForm
	if err := c.BodyParser(&form); err != nil {
		return flash.Error(c, back, "Please check the donation form.")
	}
	amount, err := strconv.ParseFloat(form.Amount, 64)
	if err != nil || amount <= 0 {
		return flash.Error(c, back, "Please enter a valid donation amount.")
	}

	in := billing.DonationInput{
		Amount:     amount,
		Frequency:  form.Frequency,
		DonorName:  form.Name,
		DonorEmail: form.Email,
	}
	if in.Frequency == "" {
		in.Frequency = models.FREQUENCY_ONETIME
	}
	if uc := usercontext.GetUserContext(c); uc.IsLoggedIn {
		in.UserID = uc.UserID
		in.DonorName = uc.FullName()
		in.DonorEmail = uc.Email
	}
	if campaign != nil {
		id := campaign.ID
		in.CampaignID = &id
	}

	url, _, err := h.Billing.InitiateCheckout(c.UserContext(), in)
	switch {
	case err == nil:
		return c.Redirect(url, fiber.StatusSeeOther)
	case errors.Is(err, billing.ErrMissingPayer):
		return flash.Error(c, back, "Please enter your name and email.")
	case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, billing.ErrInvalidFrequency):
		return flash.Error(c, back, "Please enter a valid donation amount and frequency.")
	default:
		log.Errorf("[Billing] checkout failed: %v", err)
		return flash.Error(c, back, "We could not reach the payment provider. Please try again.")
	}
}

// HandleDonationSuccess reconciles the returning session and shows the
// recorded amount.
func (h *DonationController) HandleDonationSuccess(c *fiber.Ctx) error {
	result, err := h.Billing.ReconcileSession(c.UserContext(), c.Query("session_id"))
	if errors.Is(err, billing.ErrMissingReference) {
		return c.Redirect("/donate", fiber.StatusSeeOther)
	}
	if err != nil {
		log.Errorf("[Billing] reconcile %q failed: %v", c.Query("session_id"), err)
		return flash.Error(c, "/donate", "We could not confirm your donation yet. If you were charged, it will appear in your history shortly.")
	}
	if result.Paid {
		h.Stats.Invalidate(c.UserContext())
	}

	return h.render(c, "donations/success", "Thank You", fiber.Map{
		"Paid":     result.Paid,
		"Amount":   result.Amount,
		"Currency": result.Currency,
		"Donation": result.Donation,
	})
}

func (h *DonationController) HandleHistory(c *fiber.Ctx) error {
	donations, err := h.Repos.Donation.ListByUser(usercontext.GetUserID(c))
	if err != nil {
		return err
	}
	return h.render(c, "donations/history", "Donation History", fiber.Map{"Donations": donations})
}

func (h *DonationController) HandleCancelSubscription(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	_, err = h.Billing.CancelSubscription(c.UserContext(), id, usercontext.GetUserID(c))
	switch {
	case err == nil:
		return flash.Success(c, "/history", "Your monthly donation has been cancelled. Thank you for your support!")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundOr(err)
	case errors.Is(err, billing.ErrNotOwner):
		return flash.Error(c, "/history", "You can only cancel your own donations.")
	case errors.Is(err, billing.ErrNoSubscription):
		return flash.Error(c, "/history", "This donation is not a subscription.")
	default:
		log.Errorf("[Billing] cancel donation %d failed: %v", id, err)
		return flash.Error(c, "/history", "We could not cancel the subscription right now. Please try again.")
	}
}

// HandleStripeWebhook verifies the signature against the raw body and
// applies each event once.
func (h *DonationController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)

	event, err := billing.VerifyStripeEvent(payload, c.Get("Stripe-Signature"), h.Config.StripeWebhookSecret)
	if err != nil {
		log.Warnf("[Billing] rejected webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), billing.ProviderTimeout)
	defer cancel()

	out, err := h.Billing.HandleStripeWebhook(ctx, payload, event)
	if err != nil {
		log.Errorf("[Billing] webhook %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}
	if out.Duplicate {
		return c.JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	h.Stats.Invalidate(ctx)
	return c.JSON(fiber.Map{"ok": true})
}
