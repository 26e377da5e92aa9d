package stripe

import (
	"context"
	"strings"

	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/stripe/stripe-go/v82"
)

const defaultCurrency = "usd"

// CreateAdHocLineItem creates a pending invoice item against the customer.
// Pending items attach to the customer's next invoice, which is exactly what
// both the overage injector (upcoming invoice) and the commitment engine
// (final invoice) need. Returns the processor line item id.
func (c *Client) CreateAdHocLineItem(ctx context.Context, customerID string, amountMinorUnits int64, description string) (string, error) {
	params := &stripe.InvoiceItemCreateParams{
		Customer:    stripe.String(customerID),
		Amount:      stripe.Int64(amountMinorUnits),
		Currency:    stripe.String(strings.ToLower(defaultCurrency)),
		Description: stripe.String(description),
	}

	invoiceItem, err := c.stripeClient.V1InvoiceItems.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create ad hoc line item",
			"error", err,
			"customer_id", customerID,
			"amount", amountMinorUnits,
		)
		return "", ierr.NewError("failed to create invoice line item").
			WithHint("Unable to add line item in Stripe").
			WithReportableDetails(map[string]interface{}{
				"customer_id": customerID,
				"amount":      amountMinorUnits,
				"error":       err.Error(),
			}).
			Mark(ierr.ErrSystem)
	}

	c.logger.Infow("created ad hoc line item",
		"customer_id", customerID,
		"amount", amountMinorUnits,
		"stripe_item_id", invoiceItem.ID,
	)
	return invoiceItem.ID, nil
}

// FinalizeInvoice pulls the customer's pending items onto a fresh invoice
// and finalizes it, letting Stripe handle payment collection. Returns the
// processor invoice id.
func (c *Client) FinalizeInvoice(ctx context.Context, customerID string) (string, error) {
	createParams := &stripe.InvoiceCreateParams{
		Customer:                    stripe.String(customerID),
		PendingInvoiceItemsBehavior: stripe.String("include"),
		AutoAdvance:                 stripe.Bool(true),
	}

	inv, err := c.stripeClient.V1Invoices.Create(ctx, createParams)
	if err != nil {
		c.logger.Errorw("failed to create invoice",
			"error", err,
			"customer_id", customerID,
		)
		return "", ierr.NewError("failed to create invoice").
			WithHint("Unable to create invoice in Stripe").
			WithReportableDetails(map[string]interface{}{
				"customer_id": customerID,
				"error":       err.Error(),
			}).
			Mark(ierr.ErrSystem)
	}

	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{
		AutoAdvance: stripe.Bool(true),
	}

	finalized, err := c.stripeClient.V1Invoices.FinalizeInvoice(ctx, inv.ID, finalizeParams)
	if err != nil {
		c.logger.Errorw("failed to finalize invoice",
			"error", err,
			"customer_id", customerID,
			"stripe_invoice_id", inv.ID,
		)
		return "", ierr.NewError("failed to finalize invoice").
			WithHint("Unable to finalize invoice in Stripe").
			WithReportableDetails(map[string]interface{}{
				"customer_id":       customerID,
				"stripe_invoice_id": inv.ID,
				"error":             err.Error(),
			}).
			Mark(ierr.ErrSystem)
	}

	c.logger.Infow("finalized invoice",
		"customer_id", customerID,
		"stripe_invoice_id", finalized.ID,
		"status", finalized.Status,
		"total", finalized.Total,
	)
	return finalized.ID, nil
}
