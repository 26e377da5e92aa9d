package billing

import (
	"context"
	"testing"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/testutil"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/suite"
)

func TestMonthsRemaining(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int64
	}{
		{name: "exactly 90 days is 3 months", end: now.Add(90 * 24 * time.Hour), want: 3},
		{name: "partial month rounds up", end: now.Add(61 * 24 * time.Hour), want: 3},
		{name: "one second remaining is one month", end: now.Add(time.Second), want: 1},
		{name: "already past is zero", end: now.Add(-time.Hour), want: 0},
		{name: "exactly now is zero", end: now, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsRemaining(tt.end, now); got != tt.want {
				t.Errorf("MonthsRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

type CommitmentEngineSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	store     *testutil.InMemorySubscriptionStore
	invoicing *testutil.FakeInvoicingProvider
	engine    *CommitmentEngine
}

func TestCommitmentEngine(t *testing.T) {
	suite.Run(t, new(CommitmentEngineSuite))
}

func (s *CommitmentEngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.store = testutil.NewInMemorySubscriptionStore()
	s.invoicing = testutil.NewFakeInvoicingProvider()
	s.engine = NewCommitmentEngine(s.store, s.invoicing, logger.NewNopLogger())
	s.engine.now = func() time.Time { return s.now }
}

func (s *CommitmentEngineSuite) seed(end time.Time, monthlyAmount int64) *subscription.Subscription {
	sub := &subscription.Subscription{
		SubscriptionID:     "sub_1",
		CustomerID:         "cus_1",
		SubscriptionStatus: types.SubscriptionStatusActive,
	}
	commitment := &subscription.CommitmentTracking{
		SubscriptionID:          "sub_1",
		CommitmentStartDate:     end.AddDate(0, -types.DefaultCommitmentMonths, 0),
		CommitmentEndDate:       end,
		CommitmentMonths:        types.DefaultCommitmentMonths,
		MonthlyCommitmentAmount: monthlyAmount,
	}
	s.Require().NoError(s.store.CreateWithCommitment(s.ctx, sub, commitment))
	return sub
}

func (s *CommitmentEngineSuite) TestFeeChargedInsideCommitmentWindow() {
	sub := s.seed(s.now.Add(90*24*time.Hour), 35000)
	linked := &client.Client{ID: "client_1", Name: "Rosa's Diner", Email: "rosa@example.com", RefCode: "RC-TEST1234"}

	intents, err := s.engine.EnforceOnCancellation(s.ctx, sub, linked, "evt_1")
	s.NoError(err)

	creates := s.invoicing.CallsOf("create_line_item")
	s.Require().Len(creates, 1)
	s.Equal(int64(105000), creates[0].Amount)
	s.Equal("cus_1", creates[0].CustomerID)
	s.Len(s.invoicing.CallsOf("finalize_invoice"), 1)

	commitment, err := s.store.GetCommitment(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.True(commitment.EarlyTerminationRequested)
	s.Require().NotNil(commitment.EarlyTerminationFeeCalculated)
	s.Equal(int64(105000), *commitment.EarlyTerminationFeeCalculated)
	s.False(commitment.CommitmentFulfilled)

	s.Require().Len(intents, 1)
	s.Equal(types.SideEffectEmailSend, intents[0].Kind)
	s.Equal(types.EmailTemplateEarlyTerminationFee, intents[0].Template)
	s.Equal("105000", intents[0].TemplateData["fee_amount"])
	s.Equal("3", intents[0].TemplateData["months_remaining"])
}

func (s *CommitmentEngineSuite) TestNoFeePastCommitmentEnd() {
	sub := s.seed(s.now.Add(-time.Hour), 35000)

	intents, err := s.engine.EnforceOnCancellation(s.ctx, sub, nil, "evt_1")
	s.NoError(err)
	s.Empty(intents)
	s.Empty(s.invoicing.Calls)

	commitment, err := s.store.GetCommitment(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.True(commitment.CommitmentFulfilled)
	s.False(commitment.EarlyTerminationRequested)
	s.Nil(commitment.EarlyTerminationFeeCalculated)
}

func (s *CommitmentEngineSuite) TestFeeNotChargedTwice() {
	sub := s.seed(s.now.Add(90*24*time.Hour), 35000)

	_, err := s.engine.EnforceOnCancellation(s.ctx, sub, nil, "evt_1")
	s.NoError(err)
	_, err = s.engine.EnforceOnCancellation(s.ctx, sub, nil, "evt_2")
	s.NoError(err)

	s.Len(s.invoicing.CallsOf("create_line_item"), 1)
}

func (s *CommitmentEngineSuite) TestInvoicingFailureLeavesFeeChargeable() {
	sub := s.seed(s.now.Add(90*24*time.Hour), 35000)
	s.invoicing.FailCreates = invoicingMaxRetries + 1

	intents, err := s.engine.EnforceOnCancellation(s.ctx, sub, nil, "evt_1")
	s.NoError(err)
	s.Empty(intents)

	commitment, err := s.store.GetCommitment(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.False(commitment.EarlyTerminationRequested)
	s.Nil(commitment.EarlyTerminationFeeCalculated)

	// The next termination event charges the fee.
	_, err = s.engine.EnforceOnCancellation(s.ctx, sub, nil, "evt_2")
	s.NoError(err)
	s.Len(s.invoicing.CallsOf("create_line_item"), 1)
}

func (s *CommitmentEngineSuite) TestMissingCommitmentAllowsCancellation() {
	sub := &subscription.Subscription{SubscriptionID: "sub_absent", CustomerID: "cus_1"}

	intents, err := s.engine.EnforceOnCancellation(s.ctx, sub, nil, "evt_1")
	s.NoError(err)
	s.Empty(intents)
	s.Empty(s.invoicing.Calls)
}

func (s *CommitmentEngineSuite) TestRefreshFulfillment() {
	s.seed(s.now.Add(-time.Minute), 35000)

	s.Require().NoError(s.engine.RefreshFulfillment(s.ctx, "sub_1"))

	commitment, err := s.store.GetCommitment(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.True(commitment.CommitmentFulfilled)
}
