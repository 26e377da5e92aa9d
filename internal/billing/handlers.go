package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/samber/lo"
)

// Handlers hold the per-event-type state transitions. Each handler is a
// function of (decoded payload, store state) returning the side-effect
// intents to run after commit. Handlers must tolerate out-of-order and
// redundant application: canceled is terminal, stale updates are skipped,
// and forcing an already-correct status is harmless.
type Handlers struct {
	subscriptionRepo subscription.Repository
	clients          ClientDirectory
	commitment       *CommitmentEngine
	overage          *OverageInjector
	logger           *logger.Logger

	now func() time.Time
}

// NewHandlers creates the event handler set
func NewHandlers(
	subscriptionRepo subscription.Repository,
	clients ClientDirectory,
	commitment *CommitmentEngine,
	overage *OverageInjector,
	logger *logger.Logger,
) *Handlers {
	return &Handlers{
		subscriptionRepo: subscriptionRepo,
		clients:          clients,
		commitment:       commitment,
		overage:          overage,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// linkedClient resolves the internal client for a processor customer id;
// nil means no client is linked, which is never an error.
func (h *Handlers) linkedClient(ctx context.Context, customerID string) (*client.Client, error) {
	if customerID == "" {
		return nil, nil
	}
	c, err := h.clients.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (h *Handlers) syncClientPlan(ctx context.Context, linked *client.Client, sub *subscription.Subscription) error {
	if linked == nil {
		return nil
	}
	mrr := MonthlyRecurringRevenue(sub.AmountMinorUnits, sub.BillingInterval)
	return h.clients.UpdatePlanFields(ctx, linked.ID, &client.PlanFields{
		PlanTier:           sub.PlanTier,
		SubscriptionID:     lo.ToPtr(sub.SubscriptionID),
		SubscriptionStatus: string(sub.SubscriptionStatus),
		MRRMinorUnits:      mrr,
	})
}

func crmSyncIntent(eventID string, linked *client.Client, sub *subscription.Subscription) types.SideEffectIntent {
	intent := types.NewSideEffectIntent(types.SideEffectCRMContactSync, eventID)
	intent.Email = linked.Email
	intent.Properties = map[string]string{
		"plan_tier":           sub.PlanTier,
		"subscription_status": string(sub.SubscriptionStatus),
		"mrr_minor_units":     strconv.FormatInt(MonthlyRecurringRevenue(sub.AmountMinorUnits, sub.BillingInterval), 10),
	}
	return intent
}

// HandleSubscriptionCreated inserts the subscription with its paired
// commitment row and projects the plan onto the linked client.
func (h *Handlers) HandleSubscriptionCreated(ctx context.Context, eventID string, p *SubscriptionPayload) ([]types.SideEffectIntent, error) {
	linked, err := h.linkedClient(ctx, p.CustomerID)
	if err != nil {
		return nil, err
	}

	existing, err := h.subscriptionRepo.Get(ctx, p.SubscriptionID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	sub := existing
	if sub == nil {
		status := p.Status
		if status == "" {
			status = types.SubscriptionStatusIncomplete
		}

		sub = &subscription.Subscription{
			SubscriptionID:     p.SubscriptionID,
			CustomerID:         p.CustomerID,
			SubscriptionStatus: status,
			CurrentPeriodStart: p.CurrentPeriodStart,
			CurrentPeriodEnd:   p.CurrentPeriodEnd,
			CancelAtPeriodEnd:  p.CancelAtPeriodEnd,
			PriceID:            p.PriceID,
			BillingInterval:    p.BillingInterval,
			PlanTier:           p.PlanTier,
			AmountMinorUnits:   p.AmountMinorUnits,
			BaseModel:          types.GetDefaultBaseModel(ctx),
		}
		if linked != nil {
			sub.ClientID = &linked.ID
		}

		monthlyCommitment := MonthlyRecurringRevenue(p.AmountMinorUnits, p.BillingInterval)
		commitment := subscription.NewCommitment(
			types.GetDefaultBaseModel(ctx),
			p.SubscriptionID,
			p.CommitmentMonths,
			monthlyCommitment,
			h.now(),
		)

		if err := h.subscriptionRepo.CreateWithCommitment(ctx, sub, commitment); err != nil {
			return nil, err
		}

		h.logger.Infow("subscription created",
			"subscription_id", sub.SubscriptionID,
			"customer_id", sub.CustomerID,
			"plan_tier", sub.PlanTier,
			"commitment_months", p.CommitmentMonths,
			"monthly_commitment", monthlyCommitment,
		)
	}

	if err := h.syncClientPlan(ctx, linked, sub); err != nil {
		return nil, err
	}

	var intents []types.SideEffectIntent
	if linked != nil && linked.Email != "" {
		intents = append(intents, crmSyncIntent(eventID, linked, sub))

		deal := types.NewSideEffectIntent(types.SideEffectCRMDealCreate, eventID)
		deal.Email = linked.Email
		deal.DealName = "Consulting subscription: " + sub.PlanTier
		deal.Properties = map[string]string{
			"plan_tier": sub.PlanTier,
		}
		intents = append(intents, deal)
	}
	return intents, nil
}

// HandleSubscriptionUpdated overwrites status and period fields, refreshes
// commitment fulfillment, and runs the commitment engine when a cancellation
// is newly scheduled. Updates for unknown subscriptions and updates whose
// period end is older than the stored one are skipped.
func (h *Handlers) HandleSubscriptionUpdated(ctx context.Context, eventID string, p *SubscriptionPayload) ([]types.SideEffectIntent, error) {
	existing, err := h.subscriptionRepo.Get(ctx, p.SubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			h.logger.Warnw("update for unknown subscription, skipping",
				"subscription_id", p.SubscriptionID,
			)
			return nil, nil
		}
		return nil, err
	}

	if existing.SubscriptionStatus.IsTerminal() {
		h.logger.Infow("subscription already canceled, ignoring update",
			"subscription_id", p.SubscriptionID,
		)
		return nil, nil
	}

	if !p.CurrentPeriodEnd.IsZero() && p.CurrentPeriodEnd.Before(existing.CurrentPeriodEnd) {
		h.logger.Warnw("stale subscription update, skipping",
			"subscription_id", p.SubscriptionID,
			"stored_period_end", existing.CurrentPeriodEnd,
			"event_period_end", p.CurrentPeriodEnd,
		)
		return nil, nil
	}

	cancelNewlyScheduled := p.CancelAtPeriodEnd && !existing.CancelAtPeriodEnd

	existing.SubscriptionStatus = p.Status
	if !p.CurrentPeriodStart.IsZero() {
		existing.CurrentPeriodStart = p.CurrentPeriodStart
	}
	if !p.CurrentPeriodEnd.IsZero() {
		existing.CurrentPeriodEnd = p.CurrentPeriodEnd
	}
	existing.CancelAtPeriodEnd = p.CancelAtPeriodEnd
	if p.PriceID != "" {
		existing.PriceID = p.PriceID
		existing.BillingInterval = p.BillingInterval
		existing.AmountMinorUnits = p.AmountMinorUnits
	}
	if p.PlanTier != "" {
		existing.PlanTier = p.PlanTier
	}
	existing.UpdatedAt = h.now()
	existing.UpdatedBy = types.GetUserID(ctx)

	if err := h.subscriptionRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if err := h.commitment.RefreshFulfillment(ctx, existing.SubscriptionID); err != nil {
		return nil, err
	}

	linked, err := h.linkedClient(ctx, existing.CustomerID)
	if err != nil {
		return nil, err
	}

	var intents []types.SideEffectIntent
	if cancelNewlyScheduled {
		feeIntents, err := h.commitment.EnforceOnCancellation(ctx, existing, linked, eventID)
		if err != nil {
			return nil, err
		}
		intents = append(intents, feeIntents...)
	}

	if err := h.syncClientPlan(ctx, linked, existing); err != nil {
		return nil, err
	}
	if linked != nil && linked.Email != "" {
		intents = append(intents, crmSyncIntent(eventID, linked, existing))
	}
	return intents, nil
}

// HandleSubscriptionDeleted marks the subscription canceled (terminal),
// records commitment fulfillment as of now, and clears the client's
// denormalized subscription pointer. An early deletion leaves the
// commitment unfulfilled and charges the termination fee.
func (h *Handlers) HandleSubscriptionDeleted(ctx context.Context, eventID string, p *SubscriptionPayload) ([]types.SideEffectIntent, error) {
	existing, err := h.subscriptionRepo.Get(ctx, p.SubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			h.logger.Warnw("deletion for unknown subscription, skipping",
				"subscription_id", p.SubscriptionID,
			)
			return nil, nil
		}
		return nil, err
	}

	if existing.SubscriptionStatus.IsTerminal() {
		return nil, nil
	}

	linked, err := h.linkedClient(ctx, existing.CustomerID)
	if err != nil {
		return nil, err
	}

	// Enforcement runs before the terminal transition; it settles
	// fulfillment and the fee in one place.
	intents, err := h.commitment.EnforceOnCancellation(ctx, existing, linked, eventID)
	if err != nil {
		return nil, err
	}

	existing.SubscriptionStatus = types.SubscriptionStatusCanceled
	existing.UpdatedAt = h.now()
	existing.UpdatedBy = types.GetUserID(ctx)
	if err := h.subscriptionRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if linked != nil {
		if err := h.clients.UpdatePlanFields(ctx, linked.ID, &client.PlanFields{
			PlanTier:           "",
			SubscriptionID:     nil,
			SubscriptionStatus: string(types.SubscriptionStatusCanceled),
			MRRMinorUnits:      0,
		}); err != nil {
			return nil, err
		}

		if linked.Email != "" {
			intents = append(intents, crmSyncIntent(eventID, linked, existing))

			email := types.NewSideEffectIntent(types.SideEffectEmailSend, eventID)
			email.Email = linked.Email
			email.Template = types.EmailTemplateSubscriptionCancelled
			email.TemplateData = map[string]string{
				"client_name": linked.Name,
				"ref_code":    linked.RefCode,
			}
			intents = append(intents, email)
		}
	}

	h.logger.Infow("subscription canceled",
		"subscription_id", existing.SubscriptionID,
		"customer_id", existing.CustomerID,
	)
	return intents, nil
}

// HandleInvoicePaid forces the subscription active; payment success
// supersedes a prior past_due and is safe to apply redundantly.
func (h *Handlers) HandleInvoicePaid(ctx context.Context, eventID string, p *InvoicePayload) ([]types.SideEffectIntent, error) {
	if p.SubscriptionID == "" {
		return nil, nil
	}

	existing, err := h.subscriptionRepo.Get(ctx, p.SubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if existing.SubscriptionStatus.IsTerminal() {
		return nil, nil
	}

	existing.SubscriptionStatus = types.SubscriptionStatusActive
	existing.UpdatedAt = h.now()
	existing.UpdatedBy = types.GetUserID(ctx)
	if err := h.subscriptionRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	linked, err := h.linkedClient(ctx, existing.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := h.syncClientPlan(ctx, linked, existing); err != nil {
		return nil, err
	}
	return nil, nil
}

// HandleInvoicePaymentFailed forces the subscription past_due and emits the
// payment-failure notification.
func (h *Handlers) HandleInvoicePaymentFailed(ctx context.Context, eventID string, p *InvoicePayload) ([]types.SideEffectIntent, error) {
	if p.SubscriptionID == "" {
		return nil, nil
	}

	existing, err := h.subscriptionRepo.Get(ctx, p.SubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if existing.SubscriptionStatus.IsTerminal() {
		return nil, nil
	}

	existing.SubscriptionStatus = types.SubscriptionStatusPastDue
	existing.UpdatedAt = h.now()
	existing.UpdatedBy = types.GetUserID(ctx)
	if err := h.subscriptionRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	linked, err := h.linkedClient(ctx, existing.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := h.syncClientPlan(ctx, linked, existing); err != nil {
		return nil, err
	}

	toAddress := p.CustomerEmail
	clientName, refCode := "", ""
	if linked != nil {
		if linked.Email != "" {
			toAddress = linked.Email
		}
		clientName = linked.Name
		refCode = linked.RefCode
	}
	if toAddress == "" {
		return nil, nil
	}

	intent := types.NewSideEffectIntent(types.SideEffectEmailSend, eventID)
	intent.Email = toAddress
	intent.Template = types.EmailTemplatePaymentFailed
	intent.TemplateData = map[string]string{
		"client_name": clientName,
		"ref_code":    refCode,
	}
	return []types.SideEffectIntent{intent}, nil
}

// HandleInvoiceUpcoming triggers the overage injector.
func (h *Handlers) HandleInvoiceUpcoming(ctx context.Context, eventID string, p *InvoicePayload) ([]types.SideEffectIntent, error) {
	if p.SubscriptionID == "" {
		return nil, nil
	}

	customerID := p.CustomerID
	if customerID == "" {
		sub, err := h.subscriptionRepo.Get(ctx, p.SubscriptionID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		customerID = sub.CustomerID
	}

	return nil, h.overage.InjectUpcoming(ctx, p.SubscriptionID, customerID)
}

// HandleCustomerCreated reconciles the processor customer with the internal
// directory by email.
func (h *Handlers) HandleCustomerCreated(ctx context.Context, eventID string, p *CustomerPayload) ([]types.SideEffectIntent, error) {
	if p.Email == "" {
		return nil, nil
	}
	_, err := h.clients.LinkStripeCustomer(ctx, p.Email, p.Name, p.CustomerID)
	return nil, err
}

// HandleCheckoutCompleted reconciles the checkout's customer with the
// internal directory.
func (h *Handlers) HandleCheckoutCompleted(ctx context.Context, eventID string, p *CheckoutPayload) ([]types.SideEffectIntent, error) {
	if p.CustomerEmail == "" || p.CustomerID == "" {
		return nil, nil
	}
	_, err := h.clients.LinkStripeCustomer(ctx, p.CustomerEmail, "", p.CustomerID)
	return nil, err
}

// HandleQuoteAccepted reconciles the quote's customer when the quote carries
// an email in metadata; otherwise there is nothing to link.
func (h *Handlers) HandleQuoteAccepted(ctx context.Context, eventID string, p *QuotePayload) ([]types.SideEffectIntent, error) {
	email := p.Metadata["email"]
	if email == "" || p.CustomerID == "" {
		return nil, nil
	}
	_, err := h.clients.LinkStripeCustomer(ctx, email, p.Metadata["name"], p.CustomerID)
	return nil, err
}
