package billing

import (
	"context"
	"fmt"
	"sync"
)

type fakeProvider struct {
	mu          sync.Mutex
	created     []CheckoutRequest
	sessions    map[string]*SessionState
	retrieveErr map[string]error
	cancelled   []string
	createErr   error
	cancelErr   error
	next        int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*SessionState{}, retrieveErr: map[string]error{}}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.next++
	id := fmt.Sprintf("cs_test_%d", f.next)
	f.created = append(f.created, req)
	f.sessions[id] = &SessionState{ID: id, Status: SessionStatusOpen, AmountTotal: req.AmountMinor, Currency: req.Currency}
	return &CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, id string) (*SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.retrieveErr[id]; err != nil {
		return nil, err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("retrieve %s: %w", id, ErrSessionNotFound)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProvider) CancelAtPeriodEnd(_ context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, subscriptionID)
	return nil
}

// complete marks a session paid, optionally as a subscription.
func (f *fakeProvider) complete(id, subscriptionID, customerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	s.Status = SessionStatusComplete
	s.PaymentStatus = PaymentStatusPaid
	s.SubscriptionID = subscriptionID
	s.CustomerID = customerID
}

func (f *fakeProvider) expire(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Status = SessionStatusExpired
}

// failRetrieve makes RetrieveSession return err for id until cleared with nil.
func (f *fakeProvider) failRetrieve(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveErr[id] = err
}
