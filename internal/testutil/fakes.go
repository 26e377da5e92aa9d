package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// InvoicingCall records one call against the fake invoicing provider.
type InvoicingCall struct {
	Op          string
	CustomerID  string
	Amount      int64
	Description string
}

// FakeInvoicingProvider implements billing.InvoicingProvider, recording every
// call. Set FailCreates or FailFinalizes to make the next N calls of that
// kind fail.
type FakeInvoicingProvider struct {
	mu sync.Mutex

	Calls         []InvoicingCall
	FailCreates   int
	FailFinalizes int

	nextID int
}

// NewFakeInvoicingProvider creates a recording invoicing provider
func NewFakeInvoicingProvider() *FakeInvoicingProvider {
	return &FakeInvoicingProvider{}
}

func (f *FakeInvoicingProvider) CreateAdHocLineItem(ctx context.Context, customerID string, amountMinorUnits int64, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailCreates > 0 {
		f.FailCreates--
		return "", ierr.NewError("simulated line item failure").
			Mark(ierr.ErrHTTPClient)
	}

	f.nextID++
	f.Calls = append(f.Calls, InvoicingCall{
		Op:          "create_line_item",
		CustomerID:  customerID,
		Amount:      amountMinorUnits,
		Description: description,
	})
	return fmt.Sprintf("ii_%d", f.nextID), nil
}

func (f *FakeInvoicingProvider) FinalizeInvoice(ctx context.Context, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailFinalizes > 0 {
		f.FailFinalizes--
		return "", ierr.NewError("simulated finalize failure").
			Mark(ierr.ErrHTTPClient)
	}

	f.nextID++
	f.Calls = append(f.Calls, InvoicingCall{
		Op:         "finalize_invoice",
		CustomerID: customerID,
	})
	return fmt.Sprintf("in_%d", f.nextID), nil
}

// CallsOf returns the recorded calls of one kind.
func (f *FakeInvoicingProvider) CallsOf(op string) []InvoicingCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []InvoicingCall
	for _, call := range f.Calls {
		if call.Op == op {
			calls = append(calls, call)
		}
	}
	return calls
}

// FakeIntentPublisher implements billing.IntentPublisher, collecting intents.
type FakeIntentPublisher struct {
	mu      sync.Mutex
	Intents []types.SideEffectIntent
}

// NewFakeIntentPublisher creates a collecting intent publisher
func NewFakeIntentPublisher() *FakeIntentPublisher {
	return &FakeIntentPublisher{}
}

func (f *FakeIntentPublisher) Publish(ctx context.Context, intents []types.SideEffectIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Intents = append(f.Intents, intents...)
}

// IntentsOf returns the collected intents of one kind.
func (f *FakeIntentPublisher) IntentsOf(kind types.SideEffectKind) []types.SideEffectIntent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var intents []types.SideEffectIntent
	for _, intent := range f.Intents {
		if intent.Kind == kind {
			intents = append(intents, intent)
		}
	}
	return intents
}

// FakeClientDirectory implements billing.ClientDirectory over the in-memory
// client store, without caching or reference code assignment.
type FakeClientDirectory struct {
	Store *InMemoryClientStore
}

// NewFakeClientDirectory creates a directory over a fresh store
func NewFakeClientDirectory() *FakeClientDirectory {
	return &FakeClientDirectory{Store: NewInMemoryClientStore()}
}

func (d *FakeClientDirectory) FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*client.Client, error) {
	return d.Store.GetByStripeCustomerID(ctx, stripeCustomerID)
}

func (d *FakeClientDirectory) UpdatePlanFields(ctx context.Context, clientID string, fields *client.PlanFields) error {
	return d.Store.UpdatePlanFields(ctx, clientID, fields)
}

func (d *FakeClientDirectory) LinkStripeCustomer(ctx context.Context, email string, name string, stripeCustomerID string) (*client.Client, error) {
	existing, err := d.Store.GetByEmail(ctx, email)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		c := &client.Client{
			ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
			Name:             name,
			Email:            email,
			StripeCustomerID: &stripeCustomerID,
		}
		if err := d.Store.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	existing.StripeCustomerID = &stripeCustomerID
	if err := d.Store.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}
