package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
)

const (
	// ProviderTimeout bounds every outbound provider call.
	ProviderTimeout = 15 * time.Second

	// PendingGrace is how long a Pending donation may wait for its success
	// callback before the sweep asks the provider.
	PendingGrace = 10 * time.Minute
	SweepBatch   = 50
)

// Config holds the public parts of the checkout flow.
type Config struct {
	BaseURL  string
	Currency string
}

// Service owns the donation lifecycle: Pending, then Success or Active, then
// Cancelled for subscriptions. Failed marks sessions that expired unpaid.
type Service struct {
	repo     Repository
	provider PaymentProvider
	cfg      Config
	now      func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, provider PaymentProvider, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "cad"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{repo: repo, provider: provider, cfg: cfg, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider PaymentProvider, cfg Config) *Service {
	return NewService(NewRepository(db), provider, cfg)
}

// ToMinorUnits converts a decimal amount to cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ProductName is the line item label shown on the hosted checkout page.
func ProductName(campaign *models.Campaign, frequency string) string {
	name := "General Donation"
	if campaign != nil {
		name = "Donation to " + campaign.Title
	}
	if frequency == models.FREQUENCY_MONTHLY {
		name += " (Monthly)"
	}
	return name
}

// InitiateCheckout opens a hosted checkout session and records the Pending
// donation under the session id. It returns the URL to redirect the donor to.
func (s *Service) InitiateCheckout(ctx context.Context, in DonationInput) (string, *models.Donation, error) {
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return "", nil, ErrInvalidAmount
	}
	if in.Frequency != models.FREQUENCY_ONETIME && in.Frequency != models.FREQUENCY_MONTHLY {
		return "", nil, ErrInvalidFrequency
	}
	name := strings.TrimSpace(in.DonorName)
	email := models.NormalizeEmail(in.DonorEmail)
	if in.UserID == 0 && (name == "" || email == "") {
		return "", nil, ErrMissingPayer
	}

	var campaign *models.Campaign
	if in.CampaignID != nil {
		c, err := s.repo.GetCampaign(*in.CampaignID)
		if err != nil {
			return "", nil, fmt.Errorf("load campaign %d: %w", *in.CampaignID, err)
		}
		campaign = c
	}

	metadata := map[string]string{
		"donor_name":  name,
		"frequency":   in.Frequency,
		"is_donation": "true",
		"user_id":     "",
		"campaign_id": "",
	}
	if in.UserID != 0 {
		metadata["user_id"] = strconv.FormatUint(uint64(in.UserID), 10)
	}
	if campaign != nil {
		metadata["campaign_id"] = strconv.FormatUint(uint64(campaign.ID), 10)
	}

	ctx, cancel := context.WithTimeout(ctx, ProviderTimeout)
	defer cancel()

	checkout, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		ProductName:   ProductName(campaign, in.Frequency),
		AmountMinor:   ToMinorUnits(in.Amount),
		Currency:      s.cfg.Currency,
		Recurring:     in.Frequency == models.FREQUENCY_MONTHLY,
		CustomerEmail: email,
		Metadata:      metadata,
		SuccessURL:    s.cfg.BaseURL + "/donation/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.cfg.BaseURL + "/donate",
	})
	if err != nil {
		return "", nil, err
	}

	donation := &models.Donation{
		GuestEmail: email,
		GuestName:  name,
		Amount:     math.Round(in.Amount*100) / 100,
		Currency:   s.cfg.Currency,
		Frequency:  in.Frequency,
		Reference:  checkout.ID,
		Status:     models.DONATION_STATUS_PENDING,
		CampaignID: in.CampaignID,
	}
	if in.UserID != 0 {
		uid := in.UserID
		donation.UserID = &uid
	}
	if err := s.repo.CreateDonation(donation); err != nil {
		return "", nil, fmt.Errorf("record pending donation %s: %w", checkout.ID, err)
	}

	log.Infof("[Billing] Checkout %s opened (%s %.2f %s)", checkout.ID, in.Frequency, donation.Amount, donation.Currency)
	return checkout.URL, donation, nil
}

// ReconcileSession applies the provider's session state to the matching
// donation. Only a paid session settles the row; open sessions leave it
// Pending and expired ones fail it. Repeated calls write the same state.
func (s *Service) ReconcileSession(ctx context.Context, reference string) (*ReconcileResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrMissingReference
	}

	state, err := s.retrieve(ctx, reference)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		Amount:   float64(state.AmountTotal) / 100,
		Currency: state.Currency,
		Paid:     state.Completed(),
	}

	donation, err := s.repo.GetDonationByReference(reference)
	if err != nil {
		return nil, fmt.Errorf("load donation %s: %w", reference, err)
	}
	if donation == nil {
		log.Warnf("[Billing] Reconciliation gap: no donation for session %s", reference)
		return result, nil
	}

	switch {
	case state.Completed():
		err = s.applySession(donation, state)
	case state.Expired():
		err = s.failPending(donation)
	}
	if err != nil {
		return nil, err
	}
	result.Donation = donation
	result.Amount = donation.Amount
	result.Currency = donation.Currency
	return result, nil
}

// ReconcilePending settles a Pending donation found by the sweep: completed
// sessions reconcile as on the success callback, expired or unknown ones
// fail, open ones are left alone. Every attempt stamps the row so the next
// sweep starts with donations it has not looked at yet.
func (s *Service) ReconcilePending(ctx context.Context, reference string) error {
	donation, err := s.repo.GetDonationByReference(reference)
	if err != nil {
		return fmt.Errorf("load donation %s: %w", reference, err)
	}
	if donation == nil || donation.Status != models.DONATION_STATUS_PENDING {
		return nil
	}

	state, err := s.retrieve(ctx, reference)
	checked := s.now()
	donation.LastCheckedAt = &checked
	if touchErr := s.repo.TouchDonationChecked(donation.ID, checked); touchErr != nil {
		log.Warnf("[Billing] Could not stamp sweep check for %s: %v", reference, touchErr)
	}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		log.Warnf("[Billing] Provider has no session %s", reference)
		return s.failPending(donation)
	case err != nil:
		return err
	case state.Completed():
		return s.applySession(donation, state)
	case state.Expired():
		return s.failPending(donation)
	}
	return nil
}

// PendingReferences lists Pending donations older than the grace period.
func (s *Service) PendingReferences() ([]string, error) {
	rows, err := s.repo.ListPendingBefore(s.now().Add(-PendingGrace), SweepBatch)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(rows))
	for _, d := range rows {
		refs = append(refs, d.Reference)
	}
	return refs, nil
}

// CancelSubscription stops a monthly donation at the end of its billing
// period. The row only becomes Cancelled once the provider accepted.
func (s *Service) CancelSubscription(ctx context.Context, donationID, actorID uint) (*models.Donation, error) {
	donation, err := s.repo.GetDonation(donationID)
	if err != nil {
		return nil, err
	}
	if donation.UserID == nil || *donation.UserID != actorID {
		return nil, ErrNotOwner
	}
	if donation.StripeSubscriptionID == nil || *donation.StripeSubscriptionID == "" {
		return nil, ErrNoSubscription
	}

	ctx, cancel := context.WithTimeout(ctx, ProviderTimeout)
	defer cancel()

	if err := s.provider.CancelAtPeriodEnd(ctx, *donation.StripeSubscriptionID); err != nil {
		return nil, err
	}

	donation.Status = models.DONATION_STATUS_CANCELLED
	if err := s.repo.SaveDonation(donation); err != nil {
		return nil, fmt.Errorf("mark donation %d cancelled: %w", donation.ID, err)
	}
	log.Infof("[Billing] Subscription %s cancelled by user %d", *donation.StripeSubscriptionID, actorID)
	return donation, nil
}

// ActiveSubscription returns the user's live monthly donation, or nil.
func (s *Service) ActiveSubscription(userID uint) (*models.Donation, error) {
	if userID == 0 {
		return nil, nil
	}
	return s.repo.ActiveSubscriptionForUser(userID)
}

// SubscriptionEnded marks the Active donation for a subscription the
// provider deleted. Unknown subscriptions are ignored.
func (s *Service) SubscriptionEnded(subscriptionID string) error {
	donation, err := s.repo.GetActiveBySubscription(subscriptionID)
	if err != nil {
		return err
	}
	if donation == nil {
		return nil
	}
	donation.Status = models.DONATION_STATUS_CANCELLED
	return s.repo.SaveDonation(donation)
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256(in.PayloadJSON)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		Payload:         in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func (s *Service) retrieve(ctx context.Context, reference string) (*SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, ProviderTimeout)
	defer cancel()
	return s.provider.RetrieveSession(ctx, reference)
}

// applySession moves a donation to Active or Success. Cancelled and Failed
// rows keep their state.
func (s *Service) applySession(d *models.Donation, state *SessionState) error {
	if d.Status == models.DONATION_STATUS_CANCELLED || d.Status == models.DONATION_STATUS_FAILED {
		return nil
	}

	if state.SubscriptionID != "" {
		sub := state.SubscriptionID
		d.Status = models.DONATION_STATUS_ACTIVE
		d.StripeSubscriptionID = &sub
		if state.CustomerID != "" {
			cust := state.CustomerID
			d.StripeCustomerID = &cust
		}
		d.Frequency = models.FREQUENCY_MONTHLY
	} else {
		d.Status = models.DONATION_STATUS_SUCCESS
	}

	if err := s.repo.SaveDonation(d); err != nil {
		return fmt.Errorf("reconcile donation %s: %w", d.Reference, err)
	}
	log.Infof("[Billing] Donation %s reconciled as %s", d.Reference, d.Status)
	return nil
}

func (s *Service) failPending(d *models.Donation) error {
	if d.Status != models.DONATION_STATUS_PENDING {
		return nil
	}
	d.Status = models.DONATION_STATUS_FAILED
	if err := s.repo.SaveDonation(d); err != nil {
		return fmt.Errorf("mark donation %s failed: %w", d.Reference, err)
	}
	log.Infof("[Billing] Donation %s closed unpaid", d.Reference)
	return nil
}
