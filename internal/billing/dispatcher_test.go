package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/sentry"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/testutil"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type DispatcherSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time

	ledger        *testutil.InMemoryBillingEventStore
	subscriptions *testutil.InMemorySubscriptionStore
	overages      *testutil.InMemoryOverageStore
	directory     *testutil.FakeClientDirectory
	invoicing     *testutil.FakeInvoicingProvider
	publisher     *testutil.FakeIntentPublisher

	dispatcher *Dispatcher
}

func TestDispatcher(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.ledger = testutil.NewInMemoryBillingEventStore()
	s.subscriptions = testutil.NewInMemorySubscriptionStore()
	s.overages = testutil.NewInMemoryOverageStore()
	s.directory = testutil.NewFakeClientDirectory()
	s.invoicing = testutil.NewFakeInvoicingProvider()
	s.publisher = testutil.NewFakeIntentPublisher()

	log := logger.NewNopLogger()
	engine := NewCommitmentEngine(s.subscriptions, s.invoicing, log)
	engine.now = func() time.Time { return s.now }
	injector := NewOverageInjector(s.overages, s.invoicing, log)

	handlers := NewHandlers(s.subscriptions, s.directory, engine, injector, log)
	handlers.now = func() time.Time { return s.now }

	sentrySvc := sentry.NewSentryService(config.GetDefaultConfig(), log)
	s.dispatcher = NewDispatcher(s.ledger, handlers, s.publisher, log, sentrySvc)
}

func (s *DispatcherSuite) event(id, eventType, raw string) (*stripe.Event, []byte) {
	payload := []byte(fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":%s}}`, id, eventType, raw))
	return &stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}, payload
}

func (s *DispatcherSuite) subscriptionCreatedRaw() string {
	start := s.now.Unix()
	end := s.now.AddDate(0, 1, 0).Unix()
	return fmt.Sprintf(`{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "active",
		"metadata": {"tier": "growth"},
		"items": {"data": [{
			"current_period_start": %d,
			"current_period_end": %d,
			"price": {"id": "price_1", "unit_amount": 385000, "recurring": {"interval": "year", "interval_count": 1}}
		}]}
	}`, start, end)
}

func (s *DispatcherSuite) TestSubscriptionCreatedEndToEnd() {
	event, payload := s.event("evt_1", "customer.subscription.created", s.subscriptionCreatedRaw())

	s.Require().NoError(s.dispatcher.Process(s.ctx, event, payload))

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
	s.Equal("growth", sub.PlanTier)
	s.Equal(types.BillingIntervalAnnual, sub.BillingInterval)

	commitment, err := s.subscriptions.GetCommitment(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.DefaultCommitmentMonths, commitment.CommitmentMonths)
	s.Equal(int64(32083), commitment.MonthlyCommitmentAmount)

	ledgerEntry, err := s.ledger.Get(s.ctx, "evt_1")
	s.Require().NoError(err)
	s.Equal(types.ProcessingStatusCompleted, ledgerEntry.ProcessingStatus)
}

func (s *DispatcherSuite) TestRedeliveryIsDropped() {
	event, payload := s.event("evt_1", "customer.subscription.created", s.subscriptionCreatedRaw())

	s.Require().NoError(s.dispatcher.Process(s.ctx, event, payload))

	err := s.dispatcher.Process(s.ctx, event, payload)
	s.Require().Error(err)
	s.True(ierr.IsDuplicate(err))

	subs, err := s.subscriptions.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(subs, 1)

	ledgerEntry, err := s.ledger.Get(s.ctx, "evt_1")
	s.Require().NoError(err)
	s.Equal(types.ProcessingStatusCompleted, ledgerEntry.ProcessingStatus)
}

func (s *DispatcherSuite) TestUnknownEventTypeIsNoOpSuccess() {
	event, payload := s.event("evt_2", "customer.tax_id.created", `{"id": "txi_1"}`)

	s.Require().NoError(s.dispatcher.Process(s.ctx, event, payload))

	ledgerEntry, err := s.ledger.Get(s.ctx, "evt_2")
	s.Require().NoError(err)
	s.Equal(types.ProcessingStatusCompleted, ledgerEntry.ProcessingStatus)
}

func (s *DispatcherSuite) TestMalformedPayloadFailsAndReclaims() {
	event, payload := s.event("evt_3", "customer.subscription.created", `{"customer": "cus_1"}`)

	s.Error(s.dispatcher.Process(s.ctx, event, payload))

	ledgerEntry, err := s.ledger.Get(s.ctx, "evt_3")
	s.Require().NoError(err)
	s.Equal(types.ProcessingStatusFailed, ledgerEntry.ProcessingStatus)
	s.NotNil(ledgerEntry.ProcessingError)

	// A redelivery reclaims the failed row and retries the handler.
	good, goodPayload := s.event("evt_3", "customer.subscription.created", s.subscriptionCreatedRaw())
	s.Require().NoError(s.dispatcher.Process(s.ctx, good, goodPayload))

	ledgerEntry, err = s.ledger.Get(s.ctx, "evt_3")
	s.Require().NoError(err)
	s.Equal(types.ProcessingStatusCompleted, ledgerEntry.ProcessingStatus)
}

func (s *DispatcherSuite) TestOverageDoubleDelivery() {
	charge := overage.New(types.BaseModel{CreatedAt: s.now}, "sub_1", "menu_analysis", 3, 500)
	s.Require().NoError(s.overages.Create(s.ctx, charge))

	raw := `{"id": "in_1", "customer": "cus_1", "subscription": "sub_1"}`
	first, firstPayload := s.event("evt_up_1", "invoice.upcoming", raw)
	second, secondPayload := s.event("evt_up_2", "invoice.upcoming", raw)

	s.Require().NoError(s.dispatcher.Process(s.ctx, first, firstPayload))
	s.Require().NoError(s.dispatcher.Process(s.ctx, second, secondPayload))

	// Distinct event ids both process, but the charge bills exactly once.
	s.Len(s.invoicing.CallsOf("create_line_item"), 1)
}

func (s *DispatcherSuite) TestIntentsPublishedAfterCompletion() {
	_, err := s.directory.LinkStripeCustomer(s.ctx, "rosa@example.com", "Rosa's Diner", "cus_1")
	s.Require().NoError(err)

	event, payload := s.event("evt_1", "customer.subscription.created", s.subscriptionCreatedRaw())
	s.Require().NoError(s.dispatcher.Process(s.ctx, event, payload))

	s.Len(s.publisher.IntentsOf(types.SideEffectCRMContactSync), 1)
	s.Len(s.publisher.IntentsOf(types.SideEffectCRMDealCreate), 1)
}
