package billing

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// ClientDirectory is the pipeline's view of the internal customer directory.
// Lookups return ErrNotFound when no record matches; handlers treat that as
// "no internal client linked yet", never as a failure.
type ClientDirectory interface {
	FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*client.Client, error)
	UpdatePlanFields(ctx context.Context, clientID string, fields *client.PlanFields) error

	// LinkStripeCustomer reconciles a processor customer id with the
	// directory: matches an existing row by email and links it, assigning a
	// reference code when the row has none.
	LinkStripeCustomer(ctx context.Context, email string, name string, stripeCustomerID string) (*client.Client, error)
}

// InvoicingProvider creates charges against the payment processor. Calls are
// retried with backoff by the caller because money is involved, but a final
// failure never fails the ledger entry for the triggering event.
type InvoicingProvider interface {
	CreateAdHocLineItem(ctx context.Context, customerID string, amountMinorUnits int64, description string) (string, error)
	FinalizeInvoice(ctx context.Context, customerID string) (string, error)
}

// IntentPublisher hands side-effect intents to the scheduler after the state
// transition has committed. Publishing is best-effort; errors are logged by
// the implementation and never returned to the pipeline.
type IntentPublisher interface {
	Publish(ctx context.Context, intents []types.SideEffectIntent)
}
