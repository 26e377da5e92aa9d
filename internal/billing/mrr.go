package billing

import (
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// MonthlyRecurringRevenue normalizes a per-interval amount in minor units to
// a monthly figure: annual divides by 12, quarterly by 3, monthly passes
// through. The result is floored to an integer minor-unit amount, so an
// annual 385000 normalizes to 32083.
func MonthlyRecurringRevenue(amountMinorUnits int64, interval types.BillingInterval) int64 {
	amount := decimal.NewFromInt(amountMinorUnits)
	switch interval {
	case types.BillingIntervalAnnual:
		return amount.Div(decimal.NewFromInt(12)).Floor().IntPart()
	case types.BillingIntervalQuarterly:
		return amount.Div(decimal.NewFromInt(3)).Floor().IntPart()
	default:
		return amountMinorUnits
	}
}
