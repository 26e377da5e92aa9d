package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/samber/lo"
)

// commitmentMonthUnit is the fixed 30-day month used for fee proration.
const commitmentMonthUnit = 30 * 24 * time.Hour

const invoicingMaxRetries = 3

// CommitmentEngine enforces minimum-term contracts. It runs whenever a
// cancellation is scheduled or the subscription is deleted inside the
// commitment window, and charges the early termination fee through the
// invoicing provider before recording it locally.
type CommitmentEngine struct {
	subscriptionRepo subscription.Repository
	invoicing        InvoicingProvider
	logger           *logger.Logger

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

// NewCommitmentEngine creates a commitment engine
func NewCommitmentEngine(
	subscriptionRepo subscription.Repository,
	invoicing InvoicingProvider,
	logger *logger.Logger,
) *CommitmentEngine {
	return &CommitmentEngine{
		subscriptionRepo: subscriptionRepo,
		invoicing:        invoicing,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// MonthsRemaining is ceil((end-now)/30d) in integer arithmetic.
func MonthsRemaining(end, now time.Time) int64 {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64((remaining + commitmentMonthUnit - 1) / commitmentMonthUnit)
}

// RefreshFulfillment flips commitmentFulfilled once wall-clock time passes
// the commitment end. It is recomputed on every subscription update.
func (e *CommitmentEngine) RefreshFulfillment(ctx context.Context, subscriptionID string) error {
	commitment, err := e.subscriptionRepo.GetCommitment(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if commitment.CommitmentFulfilled {
		return nil
	}
	if e.now().Before(commitment.CommitmentEndDate) {
		return nil
	}

	commitment.CommitmentFulfilled = true
	commitment.UpdatedAt = e.now()
	return e.subscriptionRepo.UpdateCommitment(ctx, commitment)
}

// EnforceOnCancellation runs the early-termination algorithm for the
// subscription. A fulfilled or missing commitment allows cancellation with
// no fee; otherwise the fee is monthsRemaining x monthlyCommitmentAmount in
// minor units, charged via the invoicing provider and only then recorded on
// the commitment row. The earlyTerminationRequested flag guards the fee
// against being charged twice across distinct events.
//
// An invoicing failure after retries is logged and swallowed: the state
// transition already succeeded and the unset flags leave the fee chargeable
// by a later termination event.
func (e *CommitmentEngine) EnforceOnCancellation(ctx context.Context, sub *subscription.Subscription, linked *client.Client, eventID string) ([]types.SideEffectIntent, error) {
	commitment, err := e.subscriptionRepo.GetCommitment(ctx, sub.SubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if commitment.CommitmentFulfilled {
		return nil, nil
	}

	now := e.now()
	if !now.Before(commitment.CommitmentEndDate) {
		commitment.CommitmentFulfilled = true
		commitment.UpdatedAt = now
		if err := e.subscriptionRepo.UpdateCommitment(ctx, commitment); err != nil {
			return nil, err
		}
		e.logger.Infow("commitment fulfilled, cancellation allowed with no fee",
			"subscription_id", sub.SubscriptionID,
		)
		return nil, nil
	}

	if commitment.EarlyTerminationRequested {
		e.logger.Infow("early termination already recorded, skipping fee",
			"subscription_id", sub.SubscriptionID,
		)
		return nil, nil
	}

	monthsRemaining := MonthsRemaining(commitment.CommitmentEndDate, now)
	fee := monthsRemaining * commitment.MonthlyCommitmentAmount

	description := fmt.Sprintf("Early termination fee (%d month(s) remaining on commitment)", monthsRemaining)

	if err := e.chargeFee(ctx, sub.CustomerID, fee, description); err != nil {
		e.logger.Errorw("early termination fee charge failed, leaving fee chargeable",
			"error", err,
			"subscription_id", sub.SubscriptionID,
			"customer_id", sub.CustomerID,
			"fee", fee,
		)
		return nil, nil
	}

	commitment.EarlyTerminationRequested = true
	commitment.EarlyTerminationFeeCalculated = lo.ToPtr(fee)
	commitment.UpdatedAt = now
	if err := e.subscriptionRepo.UpdateCommitment(ctx, commitment); err != nil {
		return nil, err
	}

	e.logger.Infow("early termination fee charged",
		"subscription_id", sub.SubscriptionID,
		"months_remaining", monthsRemaining,
		"fee", fee,
	)

	var intents []types.SideEffectIntent
	if linked != nil && linked.Email != "" {
		intent := types.NewSideEffectIntent(types.SideEffectEmailSend, eventID)
		intent.Email = linked.Email
		intent.Template = types.EmailTemplateEarlyTerminationFee
		intent.TemplateData = map[string]string{
			"client_name":      linked.Name,
			"ref_code":         linked.RefCode,
			"fee_amount":       strconv.FormatInt(fee, 10),
			"months_remaining": strconv.FormatInt(monthsRemaining, 10),
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

// chargeFee creates and finalizes the fee invoice. Each provider call is
// retried separately so a finalize failure never duplicates the line item.
func (e *CommitmentEngine) chargeFee(ctx context.Context, customerID string, fee int64, description string) error {
	if err := retryInvoicing(ctx, func() error {
		_, err := e.invoicing.CreateAdHocLineItem(ctx, customerID, fee, description)
		return err
	}); err != nil {
		return err
	}

	return retryInvoicing(ctx, func() error {
		_, err := e.invoicing.FinalizeInvoice(ctx, customerID)
		return err
	})
}

// retryInvoicing applies the bounded exponential backoff policy shared by
// all invoicing-provider calls.
func retryInvoicing(ctx context.Context, operation func() error) error {
	return backoff.Retry(
		operation,
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), invoicingMaxRetries),
			ctx,
		),
	)
}
