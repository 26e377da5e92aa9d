package service

import (
	"context"
	"strings"
	"testing"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/cache"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type ClientServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *testutil.InMemoryClientStore
	service *ClientService
}

func TestClientService(t *testing.T) {
	suite.Run(t, new(ClientServiceSuite))
}

func (s *ClientServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutil.NewInMemoryClientStore()
	s.service = NewClientService(ServiceParams{
		Logger:     logger.NewNopLogger(),
		Config:     config.GetDefaultConfig(),
		Cache:      cache.NewInMemoryCache(),
		ClientRepo: s.store,
	})
}

func (s *ClientServiceSuite) TestLinkCreatesClientForUnknownEmail() {
	c, err := s.service.LinkStripeCustomer(s.ctx, "Rosa@Example.com", "Rosa's Diner", "cus_1")
	s.Require().NoError(err)

	s.Equal("rosa@example.com", c.Email)
	s.Require().NotNil(c.StripeCustomerID)
	s.Equal("cus_1", *c.StripeCustomerID)
	s.True(strings.HasPrefix(c.RefCode, "RC-"), "ref code %q", c.RefCode)
}

func (s *ClientServiceSuite) TestLinkAttachesToExistingRow() {
	s.Require().NoError(s.store.Create(s.ctx, &client.Client{
		ID:    "client_1",
		Name:  "Rosa's Diner",
		Email: "rosa@example.com",
	}))

	c, err := s.service.LinkStripeCustomer(s.ctx, "rosa@example.com", "", "cus_1")
	s.Require().NoError(err)
	s.Equal("client_1", c.ID)
	s.Require().NotNil(c.StripeCustomerID)
	s.Equal("cus_1", *c.StripeCustomerID)
	s.NotEmpty(c.RefCode)
}

func (s *ClientServiceSuite) TestLinkFirstWriterWins() {
	_, err := s.service.LinkStripeCustomer(s.ctx, "rosa@example.com", "Rosa's Diner", "cus_1")
	s.Require().NoError(err)

	c, err := s.service.LinkStripeCustomer(s.ctx, "rosa@example.com", "", "cus_other")
	s.Require().NoError(err)
	s.Equal("cus_1", *c.StripeCustomerID)
}

func (s *ClientServiceSuite) TestLinkRequiresEmail() {
	_, err := s.service.LinkStripeCustomer(s.ctx, "  ", "", "cus_1")
	s.True(ierr.IsValidation(err))
}

func (s *ClientServiceSuite) TestFindByStripeCustomerIDReadsThroughCache() {
	linked, err := s.service.LinkStripeCustomer(s.ctx, "rosa@example.com", "Rosa's Diner", "cus_1")
	s.Require().NoError(err)

	first, err := s.service.FindByStripeCustomerID(s.ctx, "cus_1")
	s.Require().NoError(err)
	s.Equal(linked.ID, first.ID)

	// Cached read survives the row vanishing from the store.
	s.store.UpdatePlanFields(s.ctx, linked.ID, &client.PlanFields{PlanTier: "scale"})
	second, err := s.service.FindByStripeCustomerID(s.ctx, "cus_1")
	s.Require().NoError(err)
	s.Equal(first.PlanTier, second.PlanTier)

	// A plan update through the service invalidates the cache.
	s.Require().NoError(s.service.UpdatePlanFields(s.ctx, linked.ID, &client.PlanFields{PlanTier: "enterprise"}))
	third, err := s.service.FindByStripeCustomerID(s.ctx, "cus_1")
	s.Require().NoError(err)
	s.Equal("enterprise", third.PlanTier)
}

func (s *ClientServiceSuite) TestFindUnknownCustomerIsNotFound() {
	_, err := s.service.FindByStripeCustomerID(s.ctx, "cus_missing")
	s.True(ierr.IsNotFound(err))
}
