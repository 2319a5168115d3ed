package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrInvalidSignature = errors.New("billing: invalid webhook signature")

// WebhookOutcome tells the handler how to answer.
type WebhookOutcome struct {
	EventID   string
	EventType string
	Duplicate bool
}

type checkoutSessionPayload struct {
	ID string `json:"id"`
}

type subscriptionPayload struct {
	ID string `json:"id"`
}

// VerifyStripeEvent checks the Stripe-Signature header against the raw body.
func VerifyStripeEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	if signature == "" || secret == "" {
		return stripe.Event{}, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// HandleStripeWebhook records a verified event once and applies it to the
// donation it concerns. A redelivery counts as a duplicate only after an
// earlier delivery was applied without error.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, event stripe.Event) (*WebhookOutcome, error) {
	out := &WebhookOutcome{EventID: event.ID, EventType: string(event.Type)}

	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     payload,
		SignatureValid:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("record webhook event %s: %w", event.ID, err)
	}
	if !created {
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			out.Duplicate = true
			return out, nil
		}
		log.Infof("[Billing] Retrying Stripe event %s after earlier failure", event.ID)
	}

	processErr := s.applyStripeEvent(ctx, event)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, processErr); err != nil {
		log.Errorf("[Billing] Marking webhook %s processed: %v", event.ID, err)
	}
	if processErr != nil {
		return nil, processErr
	}
	return out, nil
}

func (s *Service) applyStripeEvent(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if cs.ID == "" {
			return ErrMissingReference
		}
		_, err := s.ReconcileSession(ctx, cs.ID)
		return err

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if sub.ID == "" {
			return nil
		}
		return s.SubscriptionEnded(sub.ID)

	default:
		log.Debugf("[Billing] Ignoring Stripe event %s (%s)", event.ID, event.Type)
		return nil
	}
}
