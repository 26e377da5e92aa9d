package overage

import (
	"fmt"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// OverageCharge is a metered usage charge pending attachment to a future
// invoice. Rows are created by the usage tracker (or the admin API) and are
// consumed exactly once, at the invoice.upcoming event for the subscription.
type OverageCharge struct {
	ID string `db:"id" json:"id"`

	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// UsageType names what was metered, e.g. "menu_analysis".
	UsageType string `db:"usage_type" json:"usage_type"`

	OverageUnits int64 `db:"overage_units" json:"overage_units"`

	// OverageRate is the per-unit price in minor currency units.
	OverageRate int64 `db:"overage_rate" json:"overage_rate"`

	// OverageAmount = OverageUnits * OverageRate, in minor units.
	OverageAmount int64 `db:"overage_amount" json:"overage_amount"`

	Billed   bool       `db:"billed" json:"billed"`
	BilledAt *time.Time `db:"billed_at" json:"billed_at,omitempty"`

	// InvoiceItemID references the processor line item once billed.
	InvoiceItemID *string `db:"invoice_item_id" json:"invoice_item_id,omitempty"`

	types.BaseModel
}

// New builds an unbilled overage charge, computing the amount from units
// and rate in integer minor units.
func New(base types.BaseModel, subscriptionID, usageType string, units, rate int64) *OverageCharge {
	return &OverageCharge{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_OVERAGE),
		SubscriptionID: subscriptionID,
		UsageType:      usageType,
		OverageUnits:   units,
		OverageRate:    rate,
		OverageAmount:  units * rate,
		BaseModel:      base,
	}
}

// LineItemDescription renders the invoice line description, e.g.
// "12 menu_analysis @ 500/unit".
func (o *OverageCharge) LineItemDescription() string {
	return fmt.Sprintf("%d %s @ %d/unit", o.OverageUnits, o.UsageType, o.OverageRate)
}
