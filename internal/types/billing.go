package types

// BillingEventType identifies the kind of a processor notification. The set
// below is the closed set of event types the pipeline understands; anything
// else is acknowledged and recorded as a no-op.
type BillingEventType string

const (
	EventTypeSubscriptionCreated BillingEventType = "customer.subscription.created"
	EventTypeSubscriptionUpdated BillingEventType = "customer.subscription.updated"
	EventTypeSubscriptionDeleted BillingEventType = "customer.subscription.deleted"
	EventTypeInvoicePaid         BillingEventType = "invoice.paid"
	EventTypeInvoicePaymentFail  BillingEventType = "invoice.payment_failed"
	EventTypeInvoiceUpcoming     BillingEventType = "invoice.upcoming"
	EventTypeQuoteAccepted       BillingEventType = "quote.accepted"
	EventTypeCustomerCreated     BillingEventType = "customer.created"
	EventTypeCheckoutCompleted   BillingEventType = "checkout.session.completed"
)

func (t BillingEventType) String() string {
	return string(t)
}

// ProcessingStatus is the lifecycle of an idempotency ledger entry.
type ProcessingStatus string

const (
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// SubscriptionStatus mirrors the processor's subscription state machine 1:1.
// No additional states are invented locally.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
)

// IsTerminal reports whether no further transition may leave the status.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCanceled
}

// BillingInterval is the cadence a price recurs at.
type BillingInterval string

const (
	BillingIntervalMonthly   BillingInterval = "monthly"
	BillingIntervalQuarterly BillingInterval = "quarterly"
	BillingIntervalAnnual    BillingInterval = "annual"
)

// BillingIntervalFromStripe maps the processor's interval/interval_count pair
// onto the local cadence. A 3-month interval counts as quarterly.
func BillingIntervalFromStripe(interval string, intervalCount int64) BillingInterval {
	switch interval {
	case "year":
		return BillingIntervalAnnual
	case "month":
		if intervalCount == 3 {
			return BillingIntervalQuarterly
		}
		return BillingIntervalMonthly
	default:
		return BillingIntervalMonthly
	}
}

const DefaultCommitmentMonths = 3
