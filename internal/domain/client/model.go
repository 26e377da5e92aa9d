package client

import (
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// Client is one row of the internal customer directory. The plan fields are
// denormalized projections of the client's active subscription so the admin
// dashboard never joins across tables.
type Client struct {
	ID string `db:"id" json:"id"`

	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`

	// RefCode is the short human-readable reference the consultants quote on
	// calls, e.g. RC-XYZ12A8Q. Assigned at reconciliation time.
	RefCode string `db:"ref_code" json:"ref_code"`

	// StripeCustomerID links the directory row to the processor customer.
	StripeCustomerID *string `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`

	// Denormalized plan fields, maintained by the billing pipeline.
	PlanTier           string  `db:"plan_tier" json:"plan_tier"`
	SubscriptionID     *string `db:"subscription_id" json:"subscription_id,omitempty"`
	SubscriptionStatus string  `db:"subscription_status" json:"subscription_status"`

	// MRRMinorUnits is the subscription amount normalized to a monthly
	// cadence, in minor currency units.
	MRRMinorUnits int64 `db:"mrr_minor_units" json:"mrr_minor_units"`

	types.BaseModel
}

// PlanFields is the denormalized projection written back by the pipeline.
type PlanFields struct {
	PlanTier           string
	SubscriptionID     *string
	SubscriptionStatus string
	MRRMinorUnits      int64
}
