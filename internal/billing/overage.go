package billing

import (
	"context"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
)

// OverageInjector attaches unbilled metered charges to the subscription's
// upcoming invoice. Pending invoice items created against the customer land
// on the invoice Stripe is about to finalize, so no explicit invoice
// reference is needed.
type OverageInjector struct {
	overageRepo overage.Repository
	invoicing   InvoicingProvider
	logger      *logger.Logger

	now func() time.Time
}

// NewOverageInjector creates an overage injector
func NewOverageInjector(
	overageRepo overage.Repository,
	invoicing InvoicingProvider,
	logger *logger.Logger,
) *OverageInjector {
	return &OverageInjector{
		overageRepo: overageRepo,
		invoicing:   invoicing,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// InjectUpcoming bills every unbilled overage row for the subscription as a
// separate line item, flipping billed=true only after the provider call
// succeeds. A provider failure on one row is logged and skipped; the row
// stays unbilled and is retried on the next invoice.upcoming. Zero unbilled
// rows is a no-op.
func (i *OverageInjector) InjectUpcoming(ctx context.Context, subscriptionID string, customerID string) error {
	charges, err := i.overageRepo.ListUnbilled(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if len(charges) == 0 {
		i.logger.Debugw("no unbilled overage charges", "subscription_id", subscriptionID)
		return nil
	}

	for _, charge := range charges {
		var itemID string
		err := retryInvoicing(ctx, func() error {
			var callErr error
			itemID, callErr = i.invoicing.CreateAdHocLineItem(ctx, customerID, charge.OverageAmount, charge.LineItemDescription())
			return callErr
		})
		if err != nil {
			i.logger.Errorw("overage line item creation failed, row stays unbilled",
				"error", err,
				"overage_id", charge.ID,
				"subscription_id", subscriptionID,
				"amount", charge.OverageAmount,
			)
			continue
		}

		if err := i.overageRepo.MarkBilled(ctx, charge.ID, itemID, i.now()); err != nil {
			return err
		}

		i.logger.Infow("overage charge billed",
			"overage_id", charge.ID,
			"subscription_id", subscriptionID,
			"amount", charge.OverageAmount,
			"invoice_item_id", itemID,
		)
	}
	return nil
}
