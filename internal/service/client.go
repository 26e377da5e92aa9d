package service

import (
	"context"
	"strings"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

const clientCacheExpiry = 15 * time.Minute

// ClientService owns the internal customer directory. It backs both the
// pipeline's directory lookups (cached, they run on every event) and the
// admin listing surface.
type ClientService struct {
	ServiceParams
}

// NewClientService creates a client directory service
func NewClientService(params ServiceParams) *ClientService {
	return &ClientService{ServiceParams: params}
}

func clientCacheKey(stripeCustomerID string) string {
	return "client:stripe:" + stripeCustomerID
}

// FindByStripeCustomerID resolves the directory row for a processor customer
// id, reading through the cache.
func (s *ClientService) FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*client.Client, error) {
	if cached, ok := s.Cache.Get(ctx, clientCacheKey(stripeCustomerID)); ok {
		if c, ok := cached.(*client.Client); ok {
			return c, nil
		}
	}

	c, err := s.ClientRepo.GetByStripeCustomerID(ctx, stripeCustomerID)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, clientCacheKey(stripeCustomerID), c, clientCacheExpiry)
	return c, nil
}

// UpdatePlanFields overwrites the denormalized subscription projection and
// invalidates the cached row.
func (s *ClientService) UpdatePlanFields(ctx context.Context, clientID string, fields *client.PlanFields) error {
	if err := s.ClientRepo.UpdatePlanFields(ctx, clientID, fields); err != nil {
		return err
	}
	s.Cache.DeleteByPrefix(ctx, "client:stripe:")
	return nil
}

// LinkStripeCustomer reconciles a processor customer with the directory by
// email. An existing row gets the customer id attached (first writer wins);
// an unknown email creates a fresh row so the directory grows from checkout.
// A reference code is assigned whenever the row has none.
func (s *ClientService) LinkStripeCustomer(ctx context.Context, email string, name string, stripeCustomerID string) (*client.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ierr.NewError("email is required to link a customer").
			Mark(ierr.ErrValidation)
	}

	existing, err := s.ClientRepo.GetByEmail(ctx, email)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if existing == nil {
		c := &client.Client{
			ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
			Name:               name,
			Email:              email,
			RefCode:            types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CLIENT_REF),
			StripeCustomerID:   &stripeCustomerID,
			SubscriptionStatus: string(types.SubscriptionStatusIncomplete),
			BaseModel:          types.GetDefaultBaseModel(ctx),
		}
		if err := s.ClientRepo.Create(ctx, c); err != nil {
			return nil, err
		}
		s.Logger.Infow("client created from processor customer",
			"client_id", c.ID,
			"ref_code", c.RefCode,
			"stripe_customer_id", stripeCustomerID,
		)
		return c, nil
	}

	changed := false
	if existing.StripeCustomerID == nil || *existing.StripeCustomerID == "" {
		existing.StripeCustomerID = &stripeCustomerID
		changed = true
	}
	if existing.RefCode == "" {
		existing.RefCode = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CLIENT_REF)
		changed = true
	}
	if existing.Name == "" && name != "" {
		existing.Name = name
		changed = true
	}

	if changed {
		existing.UpdatedAt = time.Now().UTC()
		existing.UpdatedBy = types.GetUserID(ctx)
		if err := s.ClientRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.Cache.DeleteByPrefix(ctx, "client:stripe:")
		s.Logger.Infow("client linked to processor customer",
			"client_id", existing.ID,
			"ref_code", existing.RefCode,
			"stripe_customer_id", stripeCustomerID,
		)
	}
	return existing, nil
}

// GetClient returns one directory row by id.
func (s *ClientService) GetClient(ctx context.Context, id string) (*client.Client, error) {
	return s.ClientRepo.Get(ctx, id)
}

// ClientListResponse is the admin listing payload.
type ClientListResponse struct {
	Items      []*client.Client `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// ListClients pages through the directory for the admin surface.
func (s *ClientService) ListClients(ctx context.Context, filter *client.Filter) (*ClientListResponse, error) {
	if filter == nil {
		filter = &client.Filter{}
	}

	items, err := s.ClientRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ClientRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ClientListResponse{
		Items: items,
		Pagination: Pagination{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}, nil
}
