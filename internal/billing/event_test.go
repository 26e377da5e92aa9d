package billing

import (
	"encoding/json"
	"testing"
	"time"

	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func subscriptionEvent(t *testing.T, eventType string, raw string) *stripe.Event {
	t.Helper()
	return &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestDecodeSubscription(t *testing.T) {
	event := subscriptionEvent(t, "customer.subscription.created", `{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "active",
		"cancel_at_period_end": false,
		"metadata": {"tier": "growth", "commitment_months": "6"},
		"items": {
			"data": [{
				"current_period_start": 1767225600,
				"current_period_end": 1769904000,
				"price": {
					"id": "price_1",
					"unit_amount": 105000,
					"recurring": {"interval": "month", "interval_count": 3}
				}
			}]
		}
	}`)

	p, err := DecodeSubscription(event)
	require.NoError(t, err)

	assert.Equal(t, "sub_1", p.SubscriptionID)
	assert.Equal(t, "cus_1", p.CustomerID)
	assert.Equal(t, types.SubscriptionStatusActive, p.Status)
	assert.Equal(t, "growth", p.PlanTier)
	assert.Equal(t, 6, p.CommitmentMonths)
	assert.Equal(t, "price_1", p.PriceID)
	assert.Equal(t, int64(105000), p.AmountMinorUnits)
	assert.Equal(t, types.BillingIntervalQuarterly, p.BillingInterval)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), p.CurrentPeriodStart)
	assert.Equal(t, time.Unix(1769904000, 0).UTC(), p.CurrentPeriodEnd)
}

func TestDecodeSubscriptionDefaults(t *testing.T) {
	event := subscriptionEvent(t, "customer.subscription.created", `{"id": "sub_1", "customer": "cus_1", "status": "active"}`)

	p, err := DecodeSubscription(event)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultCommitmentMonths, p.CommitmentMonths)
	assert.Equal(t, types.BillingIntervalMonthly, p.BillingInterval)
}

func TestDecodeSubscriptionMissingID(t *testing.T) {
	event := subscriptionEvent(t, "customer.subscription.created", `{"customer": "cus_1"}`)

	_, err := DecodeSubscription(event)
	assert.True(t, ierr.IsValidation(err))
}

func TestDecodeSubscriptionMalformed(t *testing.T) {
	event := subscriptionEvent(t, "customer.subscription.created", `{"id": 42`)

	_, err := DecodeSubscription(event)
	assert.True(t, ierr.IsValidation(err))
}

func TestDecodeInvoice(t *testing.T) {
	event := subscriptionEvent(t, "invoice.paid", `{
		"id": "in_1",
		"customer": "cus_1",
		"customer_email": "rosa@example.com",
		"subscription": "sub_1",
		"amount_due": 35000
	}`)

	p, err := DecodeInvoice(event)
	require.NoError(t, err)
	assert.Equal(t, "in_1", p.InvoiceID)
	assert.Equal(t, "sub_1", p.SubscriptionID)
	assert.Equal(t, int64(35000), p.AmountDue)
}

func TestDecodeInvoiceParentFallback(t *testing.T) {
	event := subscriptionEvent(t, "invoice.paid", `{
		"id": "in_1",
		"customer": "cus_1",
		"parent": {"subscription_details": {"subscription": "sub_9"}}
	}`)

	p, err := DecodeInvoice(event)
	require.NoError(t, err)
	assert.Equal(t, "sub_9", p.SubscriptionID)
}

func TestDecodeCheckoutSession(t *testing.T) {
	event := subscriptionEvent(t, "checkout.session.completed", `{
		"id": "cs_1",
		"customer": "cus_1",
		"subscription": "sub_1",
		"customer_details": {"email": "rosa@example.com"}
	}`)

	p, err := DecodeCheckoutSession(event)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", p.SessionID)
	assert.Equal(t, "rosa@example.com", p.CustomerEmail)
}
