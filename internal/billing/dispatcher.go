package billing

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/sentry"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Dispatcher runs one verified webhook event through the pipeline: claim the
// event id in the ledger, decode the payload into its typed variant, apply
// the handler, then record the outcome. Side-effect intents collected by the
// handler are published only after the event is marked completed.
type Dispatcher struct {
	ledger    billingevent.Repository
	handlers  *Handlers
	publisher IntentPublisher
	logger    *logger.Logger
	sentry    *sentry.Service
}

// NewDispatcher creates the event dispatcher
func NewDispatcher(
	ledger billingevent.Repository,
	handlers *Handlers,
	publisher IntentPublisher,
	logger *logger.Logger,
	sentry *sentry.Service,
) *Dispatcher {
	return &Dispatcher{
		ledger:    ledger,
		handlers:  handlers,
		publisher: publisher,
		logger:    logger,
		sentry:    sentry,
	}
}

// Process handles one verified event end to end. Redelivered events that
// were already claimed are skipped without re-running the handler and
// reported with a duplicate marker so callers can tell the skip from a
// fresh run. Handler failures mark the ledger row failed, which leaves the
// event reclaimable by a later redelivery.
func (d *Dispatcher) Process(ctx context.Context, event *stripe.Event, payload []byte) error {
	eventType := types.BillingEventType(event.Type)

	result, err := d.ledger.TryBegin(ctx, billingevent.New(event.ID, eventType, payload))
	if err != nil {
		return err
	}
	if result == billingevent.BeginAlreadyProcessed {
		d.logger.Infow("duplicate event delivery, skipping",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return ierr.NewError("event already processed").
			WithHintf("Event %s was already delivered", event.ID).
			Mark(ierr.ErrDuplicate)
	}

	intents, err := d.apply(ctx, event)
	if err != nil {
		d.sentry.CaptureException(err)
		if markErr := d.ledger.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			d.logger.Errorw("failed to mark event failed",
				"error", markErr,
				"event_id", event.ID,
			)
		}
		d.logger.Errorw("event processing failed",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return err
	}

	if err := d.ledger.MarkCompleted(ctx, event.ID); err != nil {
		return err
	}

	d.logger.Infow("event processed",
		"event_id", event.ID,
		"event_type", event.Type,
		"side_effects", len(intents),
	)

	// Post-commit: publish failures are absorbed by the publisher and can
	// never fail the ledger transition.
	if len(intents) > 0 {
		d.publisher.Publish(ctx, intents)
	}
	return nil
}

// apply decodes the payload once and routes it to the handler for its type.
// Unrecognized event types are a logged no-op.
func (d *Dispatcher) apply(ctx context.Context, event *stripe.Event) ([]types.SideEffectIntent, error) {
	switch types.BillingEventType(event.Type) {
	case types.EventTypeSubscriptionCreated:
		p, err := DecodeSubscription(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleSubscriptionCreated(ctx, event.ID, p)

	case types.EventTypeSubscriptionUpdated:
		p, err := DecodeSubscription(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleSubscriptionUpdated(ctx, event.ID, p)

	case types.EventTypeSubscriptionDeleted:
		p, err := DecodeSubscription(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleSubscriptionDeleted(ctx, event.ID, p)

	case types.EventTypeInvoicePaid:
		p, err := DecodeInvoice(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleInvoicePaid(ctx, event.ID, p)

	case types.EventTypeInvoicePaymentFail:
		p, err := DecodeInvoice(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleInvoicePaymentFailed(ctx, event.ID, p)

	case types.EventTypeInvoiceUpcoming:
		p, err := DecodeInvoice(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleInvoiceUpcoming(ctx, event.ID, p)

	case types.EventTypeCustomerCreated:
		p, err := DecodeCustomer(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleCustomerCreated(ctx, event.ID, p)

	case types.EventTypeCheckoutCompleted:
		p, err := DecodeCheckoutSession(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleCheckoutCompleted(ctx, event.ID, p)

	case types.EventTypeQuoteAccepted:
		p, err := DecodeQuote(event)
		if err != nil {
			return nil, err
		}
		return d.handlers.HandleQuoteAccepted(ctx, event.ID, p)

	default:
		d.logger.Infow("unhandled event type, acknowledging without action",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return nil, nil
	}
}
