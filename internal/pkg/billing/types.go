package billing

import (
	"context"
	"errors"

	"github.com/ourstoryourvoice/osov/app/models"
)

const ProviderStripe = "stripe"

// Provider session states as reported by Stripe Checkout
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
	PaymentStatusPaid     = "paid"
)

var (
	ErrMissingReference = errors.New("billing: missing session reference")
	ErrNotOwner         = errors.New("billing: donation belongs to another user")
	ErrNoSubscription   = errors.New("billing: donation has no subscription")
	ErrInvalidAmount    = errors.New("billing: amount must be greater than zero")
	ErrInvalidFrequency = errors.New("billing: frequency must be onetime or monthly")
	ErrMissingPayer     = errors.New("billing: guest name and email are required")
	ErrSessionNotFound  = errors.New("billing: provider has no such session")
)

// PaymentProvider is the hosted checkout backend.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*SessionState, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

// CheckoutRequest describes one hosted checkout page. AmountMinor is in the
// currency's minor unit.
type CheckoutRequest struct {
	ProductName   string
	AmountMinor   int64
	Currency      string
	Recurring     bool
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// SessionState is the provider's authoritative view of a checkout session.
type SessionState struct {
	ID             string
	Status         string
	PaymentStatus  string
	SubscriptionID string
	CustomerID     string
	AmountTotal    int64
	Currency       string
}

// Completed reports whether the donor finished the checkout.
func (s *SessionState) Completed() bool {
	return s.Status == SessionStatusComplete || s.PaymentStatus == PaymentStatusPaid
}

func (s *SessionState) Expired() bool {
	return s.Status == SessionStatusExpired
}

// DonationInput is what the donate form collects.
type DonationInput struct {
	Amount     float64
	Frequency  string
	UserID     uint
	DonorName  string
	DonorEmail string
	CampaignID *uint
}

// ReconcileResult carries the confirmation data for the success page.
// Donation is nil when no local row matched the session. Paid is false
// while the provider has not confirmed payment.
type ReconcileResult struct {
	Donation *models.Donation
	Amount   float64
	Currency string
	Paid     bool
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     []byte
	SignatureValid  bool
}
