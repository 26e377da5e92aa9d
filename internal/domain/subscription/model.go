package subscription

import (
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// Subscription mirrors one externally-managed recurring billing agreement.
// The row is keyed by the processor's subscription id and its status field
// follows the processor's state machine 1:1.
type Subscription struct {
	// SubscriptionID is the processor identifier, e.g. sub_...
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// CustomerID is the processor customer identifier, e.g. cus_...
	CustomerID string `db:"customer_id" json:"customer_id"`

	// ClientID links to the internal client record when reconciled.
	ClientID *string `db:"client_id" json:"client_id,omitempty"`

	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end" json:"current_period_end"`

	CancelAtPeriodEnd bool `db:"cancel_at_period_end" json:"cancel_at_period_end"`

	PriceID         string                `db:"price_id" json:"price_id"`
	BillingInterval types.BillingInterval `db:"billing_interval" json:"billing_interval"`
	PlanTier        string                `db:"plan_tier" json:"plan_tier"`

	// AmountMinorUnits is the recurring charge per billing interval, in the
	// currency's minor units.
	AmountMinorUnits int64 `db:"amount_minor_units" json:"amount_minor_units"`

	types.BaseModel
}

// CommitmentTracking captures the minimum-term contract paired 1:1 with a
// subscription. The earlyTermination fields are written once, the first time
// a cancellation is attempted before the commitment end.
type CommitmentTracking struct {
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	CommitmentStartDate time.Time `db:"commitment_start_date" json:"commitment_start_date"`
	CommitmentEndDate   time.Time `db:"commitment_end_date" json:"commitment_end_date"`
	CommitmentMonths    int       `db:"commitment_months" json:"commitment_months"`

	// MonthlyCommitmentAmount is in minor currency units. All fee math stays
	// in int64 minor units; money never touches floating point.
	MonthlyCommitmentAmount int64 `db:"monthly_commitment_amount" json:"monthly_commitment_amount"`

	// CommitmentFulfilled becomes true only when wall-clock time has passed
	// CommitmentEndDate, never by user action alone.
	CommitmentFulfilled bool `db:"commitment_fulfilled" json:"commitment_fulfilled"`

	EarlyTerminationRequested     bool   `db:"early_termination_requested" json:"early_termination_requested"`
	EarlyTerminationFeeCalculated *int64 `db:"early_termination_fee_calculated" json:"early_termination_fee_calculated,omitempty"`

	types.BaseModel
}

// NewCommitment builds a commitment row starting now for the given term.
func NewCommitment(base types.BaseModel, subscriptionID string, months int, monthlyAmount int64, start time.Time) *CommitmentTracking {
	return &CommitmentTracking{
		SubscriptionID:          subscriptionID,
		CommitmentStartDate:     start,
		CommitmentEndDate:       start.AddDate(0, months, 0),
		CommitmentMonths:        months,
		MonthlyCommitmentAmount: monthlyAmount,
		BaseModel:               base,
	}
}
