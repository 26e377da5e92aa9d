package billing

import (
	"encoding/json"
	"strconv"
	"time"

	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// The pipeline decodes event payloads into a closed set of typed variants
// exactly once, at the dispatcher boundary. Handlers never see raw JSON.
// Decoding uses local wire structs rather than the SDK's resource types so
// the accepted shape is pinned independently of SDK upgrades.

// SubscriptionPayload is the decoded variant for the three
// customer.subscription.* event types.
type SubscriptionPayload struct {
	SubscriptionID     string
	CustomerID         string
	Status             types.SubscriptionStatus
	CancelAtPeriodEnd  bool
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	PriceID            string
	AmountMinorUnits   int64
	BillingInterval    types.BillingInterval
	PlanTier           string
	CommitmentMonths   int
	Metadata           map[string]string
}

// InvoicePayload is the decoded variant for the invoice.* event types.
type InvoicePayload struct {
	InvoiceID      string
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
	AmountDue      int64
}

// CustomerPayload is the decoded variant for customer.created.
type CustomerPayload struct {
	CustomerID string
	Email      string
	Name       string
}

// CheckoutPayload is the decoded variant for checkout.session.completed.
type CheckoutPayload struct {
	SessionID      string
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
}

// QuotePayload is the decoded variant for quote.accepted.
type QuotePayload struct {
	QuoteID    string
	CustomerID string
	Metadata   map[string]string
}

type priceObject struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
	Recurring  struct {
		Interval      string `json:"interval"`
		IntervalCount int64  `json:"interval_count"`
	} `json:"recurring"`
}

type subscriptionItemObject struct {
	CurrentPeriodStart int64       `json:"current_period_start"`
	CurrentPeriodEnd   int64       `json:"current_period_end"`
	Price              priceObject `json:"price"`
}

type subscriptionObject struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []subscriptionItemObject `json:"data"`
	} `json:"items"`
}

type invoiceObject struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	Subscription  string `json:"subscription"`
	AmountDue     int64  `json:"amount_due"`

	// Newer API versions nest the subscription reference under parent.
	Parent struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

type customerObject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type checkoutSessionObject struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type quoteObject struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

// DecodeSubscription decodes a customer.subscription.* payload.
func DecodeSubscription(event *stripe.Event) (*SubscriptionPayload, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, decodeErr(event, err)
	}
	if obj.ID == "" {
		return nil, ierr.NewError("subscription payload missing id").
			WithHintf("Event %s has no subscription id", event.ID).
			Mark(ierr.ErrValidation)
	}

	p := &SubscriptionPayload{
		SubscriptionID:    obj.ID,
		CustomerID:        obj.Customer,
		Status:            types.SubscriptionStatus(obj.Status),
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
		BillingInterval:   types.BillingIntervalMonthly,
		PlanTier:          obj.Metadata["tier"],
		CommitmentMonths:  types.DefaultCommitmentMonths,
		Metadata:          obj.Metadata,
	}

	if months, err := strconv.Atoi(obj.Metadata["commitment_months"]); err == nil && months > 0 {
		p.CommitmentMonths = months
	}

	if len(obj.Items.Data) > 0 {
		item := obj.Items.Data[0]
		p.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		p.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		p.PriceID = item.Price.ID
		p.AmountMinorUnits = item.Price.UnitAmount
		p.BillingInterval = types.BillingIntervalFromStripe(
			item.Price.Recurring.Interval,
			item.Price.Recurring.IntervalCount,
		)
	}

	return p, nil
}

// DecodeInvoice decodes an invoice.* payload.
func DecodeInvoice(event *stripe.Event) (*InvoicePayload, error) {
	var obj invoiceObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, decodeErr(event, err)
	}

	subscriptionID := obj.Subscription
	if subscriptionID == "" {
		subscriptionID = obj.Parent.SubscriptionDetails.Subscription
	}

	return &InvoicePayload{
		InvoiceID:      obj.ID,
		CustomerID:     obj.Customer,
		CustomerEmail:  obj.CustomerEmail,
		SubscriptionID: subscriptionID,
		AmountDue:      obj.AmountDue,
	}, nil
}

// DecodeCustomer decodes a customer.created payload.
func DecodeCustomer(event *stripe.Event) (*CustomerPayload, error) {
	var obj customerObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, decodeErr(event, err)
	}
	return &CustomerPayload{
		CustomerID: obj.ID,
		Email:      obj.Email,
		Name:       obj.Name,
	}, nil
}

// DecodeCheckoutSession decodes a checkout.session.completed payload.
func DecodeCheckoutSession(event *stripe.Event) (*CheckoutPayload, error) {
	var obj checkoutSessionObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, decodeErr(event, err)
	}
	return &CheckoutPayload{
		SessionID:      obj.ID,
		CustomerID:     obj.Customer,
		CustomerEmail:  obj.CustomerDetails.Email,
		SubscriptionID: obj.Subscription,
	}, nil
}

// DecodeQuote decodes a quote.accepted payload.
func DecodeQuote(event *stripe.Event) (*QuotePayload, error) {
	var obj quoteObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, decodeErr(event, err)
	}
	return &QuotePayload{
		QuoteID:    obj.ID,
		CustomerID: obj.Customer,
		Metadata:   obj.Metadata,
	}, nil
}

func decodeErr(event *stripe.Event, err error) error {
	return ierr.WithError(err).
		WithHintf("Malformed payload for event %s (%s)", event.ID, event.Type).
		Mark(ierr.ErrValidation)
}
