package billing

import (
	"context"
	"testing"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/testutil"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/suite"
)

type HandlersSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time

	subscriptions *testutil.InMemorySubscriptionStore
	directory     *testutil.FakeClientDirectory
	invoicing     *testutil.FakeInvoicingProvider
	handlers      *Handlers
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.subscriptions = testutil.NewInMemorySubscriptionStore()
	s.directory = testutil.NewFakeClientDirectory()
	s.invoicing = testutil.NewFakeInvoicingProvider()

	log := logger.NewNopLogger()
	engine := NewCommitmentEngine(s.subscriptions, s.invoicing, log)
	engine.now = func() time.Time { return s.now }
	injector := NewOverageInjector(testutil.NewInMemoryOverageStore(), s.invoicing, log)

	s.handlers = NewHandlers(s.subscriptions, s.directory, engine, injector, log)
	s.handlers.now = func() time.Time { return s.now }
}

func (s *HandlersSuite) seedSubscription(status types.SubscriptionStatus, periodEnd time.Time) {
	sub := &subscription.Subscription{
		SubscriptionID:     "sub_1",
		CustomerID:         "cus_1",
		SubscriptionStatus: status,
		CurrentPeriodStart: periodEnd.AddDate(0, -1, 0),
		CurrentPeriodEnd:   periodEnd,
		PriceID:            "price_1",
		BillingInterval:    types.BillingIntervalMonthly,
		PlanTier:           "growth",
		AmountMinorUnits:   35000,
	}
	commitment := subscription.NewCommitment(types.BaseModel{}, "sub_1", types.DefaultCommitmentMonths, 35000, s.now.AddDate(0, -1, 0))
	s.Require().NoError(s.subscriptions.CreateWithCommitment(s.ctx, sub, commitment))
}

func (s *HandlersSuite) TestCreatedLinksClient() {
	_, err := s.directory.LinkStripeCustomer(s.ctx, "rosa@example.com", "Rosa's Diner", "cus_1")
	s.Require().NoError(err)

	intents, err := s.handlers.HandleSubscriptionCreated(s.ctx, "evt_1", &SubscriptionPayload{
		SubscriptionID:   "sub_1",
		CustomerID:       "cus_1",
		Status:           types.SubscriptionStatusActive,
		PriceID:          "price_1",
		AmountMinorUnits: 105000,
		BillingInterval:  types.BillingIntervalQuarterly,
		PlanTier:         "growth",
		CommitmentMonths: types.DefaultCommitmentMonths,
	})
	s.Require().NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(sub.ClientID)

	linked, err := s.directory.FindByStripeCustomerID(s.ctx, "cus_1")
	s.Require().NoError(err)
	s.Equal("growth", linked.PlanTier)
	s.Equal(int64(35000), linked.MRRMinorUnits)

	commitment, err := s.subscriptions.GetCommitment(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(int64(35000), commitment.MonthlyCommitmentAmount)

	s.Len(intents, 2)
}

func (s *HandlersSuite) TestUpdatedUnknownSubscriptionIsNoOp() {
	intents, err := s.handlers.HandleSubscriptionUpdated(s.ctx, "evt_1", &SubscriptionPayload{
		SubscriptionID: "sub_missing",
		Status:         types.SubscriptionStatusActive,
	})
	s.NoError(err)
	s.Empty(intents)
}

func (s *HandlersSuite) TestUpdatedCanceledIsTerminal() {
	s.seedSubscription(types.SubscriptionStatusCanceled, s.now.AddDate(0, 1, 0))

	_, err := s.handlers.HandleSubscriptionUpdated(s.ctx, "evt_1", &SubscriptionPayload{
		SubscriptionID: "sub_1",
		Status:         types.SubscriptionStatusActive,
	})
	s.NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.SubscriptionStatus)
}

func (s *HandlersSuite) TestUpdatedStalePeriodEndSkipped() {
	s.seedSubscription(types.SubscriptionStatusActive, s.now.AddDate(0, 1, 0))

	_, err := s.handlers.HandleSubscriptionUpdated(s.ctx, "evt_1", &SubscriptionPayload{
		SubscriptionID:   "sub_1",
		Status:           types.SubscriptionStatusPastDue,
		CurrentPeriodEnd: s.now.AddDate(0, -2, 0),
	})
	s.NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func (s *HandlersSuite) TestUpdatedCancelScheduledChargesFee() {
	s.seedSubscription(types.SubscriptionStatusActive, s.now.AddDate(0, 1, 0))

	_, err := s.handlers.HandleSubscriptionUpdated(s.ctx, "evt_1", &SubscriptionPayload{
		SubscriptionID:    "sub_1",
		Status:            types.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		CurrentPeriodEnd:  s.now.AddDate(0, 1, 0),
	})
	s.Require().NoError(err)

	// 61 calendar days remain on the commitment; fixed 30-day months round
	// that up to 3.
	creates := s.invoicing.CallsOf("create_line_item")
	s.Require().Len(creates, 1)
	s.Equal(int64(3*35000), creates[0].Amount)

	// The same flag flip on a later event does not charge again.
	_, err = s.handlers.HandleSubscriptionUpdated(s.ctx, "evt_2", &SubscriptionPayload{
		SubscriptionID:    "sub_1",
		Status:            types.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		CurrentPeriodEnd:  s.now.AddDate(0, 1, 0),
	})
	s.Require().NoError(err)
	s.Len(s.invoicing.CallsOf("create_line_item"), 1)
}

func (s *HandlersSuite) TestDeletedMarksCanceledAndClearsClient() {
	_, err := s.directory.LinkStripeCustomer(s.ctx, "rosa@example.com", "Rosa's Diner", "cus_1")
	s.Require().NoError(err)
	s.seedSubscription(types.SubscriptionStatusActive, s.now.AddDate(0, 1, 0))

	intents, err := s.handlers.HandleSubscriptionDeleted(s.ctx, "evt_1", &SubscriptionPayload{
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.SubscriptionStatus)

	linked, err := s.directory.FindByStripeCustomerID(s.ctx, "cus_1")
	s.Require().NoError(err)
	s.Nil(linked.SubscriptionID)
	s.Equal(int64(0), linked.MRRMinorUnits)
	s.Equal(string(types.SubscriptionStatusCanceled), linked.SubscriptionStatus)

	// Early deletion inside the commitment window charges the fee and emits
	// the cancellation email.
	s.NotEmpty(s.invoicing.CallsOf("create_line_item"))
	kinds := make(map[types.SideEffectKind]bool)
	for _, intent := range intents {
		kinds[intent.Kind] = true
	}
	s.True(kinds[types.SideEffectEmailSend])

	// Redelivery of the deletion is a no-op on the terminal row.
	again, err := s.handlers.HandleSubscriptionDeleted(s.ctx, "evt_2", &SubscriptionPayload{SubscriptionID: "sub_1"})
	s.NoError(err)
	s.Empty(again)
}

func (s *HandlersSuite) TestInvoicePaidForcesActive() {
	s.seedSubscription(types.SubscriptionStatusPastDue, s.now.AddDate(0, 1, 0))

	_, err := s.handlers.HandleInvoicePaid(s.ctx, "evt_1", &InvoicePayload{SubscriptionID: "sub_1"})
	s.Require().NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func (s *HandlersSuite) TestInvoicePaymentFailedForcesPastDue() {
	s.seedSubscription(types.SubscriptionStatusActive, s.now.AddDate(0, 1, 0))

	intents, err := s.handlers.HandleInvoicePaymentFailed(s.ctx, "evt_1", &InvoicePayload{
		SubscriptionID: "sub_1",
		CustomerEmail:  "rosa@example.com",
	})
	s.Require().NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, sub.SubscriptionStatus)

	s.Require().Len(intents, 1)
	s.Equal(types.EmailTemplatePaymentFailed, intents[0].Template)
	s.Equal("rosa@example.com", intents[0].Email)
}

func (s *HandlersSuite) TestInvoicePaidOnCanceledIsNoOp() {
	s.seedSubscription(types.SubscriptionStatusCanceled, s.now.AddDate(0, 1, 0))

	_, err := s.handlers.HandleInvoicePaid(s.ctx, "evt_1", &InvoicePayload{SubscriptionID: "sub_1"})
	s.NoError(err)

	sub, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.SubscriptionStatus)
}
