package billing

import (
	"context"
	"testing"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/testutil"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/suite"
)

type OverageInjectorSuite struct {
	suite.Suite
	ctx       context.Context
	store     *testutil.InMemoryOverageStore
	invoicing *testutil.FakeInvoicingProvider
	injector  *OverageInjector
}

func TestOverageInjector(t *testing.T) {
	suite.Run(t, new(OverageInjectorSuite))
}

func (s *OverageInjectorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutil.NewInMemoryOverageStore()
	s.invoicing = testutil.NewFakeInvoicingProvider()
	s.injector = NewOverageInjector(s.store, s.invoicing, logger.NewNopLogger())
}

func (s *OverageInjectorSuite) record(units, rate int64, createdAt time.Time) *overage.OverageCharge {
	charge := overage.New(types.BaseModel{CreatedAt: createdAt}, "sub_1", "menu_analysis", units, rate)
	s.Require().NoError(s.store.Create(s.ctx, charge))
	return charge
}

func (s *OverageInjectorSuite) TestBillsEachUnbilledChargeOnce() {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.record(1, 500, base)
	s.record(4, 300, base.Add(time.Minute))

	s.Require().NoError(s.injector.InjectUpcoming(s.ctx, "sub_1", "cus_1"))

	creates := s.invoicing.CallsOf("create_line_item")
	s.Require().Len(creates, 2)
	s.Equal(int64(500), creates[0].Amount)
	s.Equal("1 menu_analysis @ 500/unit", creates[0].Description)
	s.Equal(int64(1200), creates[1].Amount)

	charges, err := s.store.ListBySubscription(s.ctx, "sub_1")
	s.Require().NoError(err)
	for _, charge := range charges {
		s.True(charge.Billed)
		s.NotNil(charge.InvoiceItemID)
		s.NotNil(charge.BilledAt)
	}

	// A redelivered invoice.upcoming finds nothing unbilled.
	s.Require().NoError(s.injector.InjectUpcoming(s.ctx, "sub_1", "cus_1"))
	s.Len(s.invoicing.CallsOf("create_line_item"), 2)
}

func (s *OverageInjectorSuite) TestNoUnbilledChargesIsNoOp() {
	s.Require().NoError(s.injector.InjectUpcoming(s.ctx, "sub_1", "cus_1"))
	s.Empty(s.invoicing.Calls)
}

func (s *OverageInjectorSuite) TestProviderFailureLeavesRowUnbilled() {
	charge := s.record(2, 500, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s.invoicing.FailCreates = invoicingMaxRetries + 1

	s.Require().NoError(s.injector.InjectUpcoming(s.ctx, "sub_1", "cus_1"))

	stored, err := s.store.Get(s.ctx, charge.ID)
	s.Require().NoError(err)
	s.False(stored.Billed)

	// The charge rides the next cycle.
	s.Require().NoError(s.injector.InjectUpcoming(s.ctx, "sub_1", "cus_1"))
	stored, err = s.store.Get(s.ctx, charge.ID)
	s.Require().NoError(err)
	s.True(stored.Billed)
}
