package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	mu      sync.Mutex
	clients map[string]*client.Client
}

// NewInMemoryClientStore creates a new in-memory client store
func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		clients: make(map[string]*client.Client),
	}
}

func copyClient(c *client.Client) *client.Client {
	if c == nil {
		return nil
	}
	copied := *c
	if c.StripeCustomerID != nil {
		id := *c.StripeCustomerID
		copied.StripeCustomerID = &id
	}
	if c.SubscriptionID != nil {
		id := *c.SubscriptionID
		copied.SubscriptionID = &id
	}
	return &copied
}

func clientNotFound() error {
	return ierr.NewError("client not found").
		WithHint("No matching client").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryClientStore) Create(ctx context.Context, c *client.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = copyClient(c)
	return nil
}

func (s *InMemoryClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, clientNotFound()
	}
	return copyClient(c), nil
}

func (s *InMemoryClientStore) GetByEmail(ctx context.Context, email string) (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.clients {
		if strings.EqualFold(c.Email, email) {
			return copyClient(c), nil
		}
	}
	return nil, clientNotFound()
}

func (s *InMemoryClientStore) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.clients {
		if c.StripeCustomerID != nil && *c.StripeCustomerID == stripeCustomerID {
			return copyClient(c), nil
		}
	}
	return nil, clientNotFound()
}

func (s *InMemoryClientStore) List(ctx context.Context, filter *client.Filter) ([]*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*client.Client
	for _, c := range s.clients {
		if filter != nil && filter.Email != "" && !strings.EqualFold(c.Email, filter.Email) {
			continue
		}
		items = append(items, copyClient(c))
	}
	return items, nil
}

func (s *InMemoryClientStore) Count(ctx context.Context, filter *client.Filter) (int, error) {
	items, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *InMemoryClientStore) Update(ctx context.Context, c *client.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return clientNotFound()
	}
	s.clients[c.ID] = copyClient(c)
	return nil
}

func (s *InMemoryClientStore) UpdatePlanFields(ctx context.Context, id string, fields *client.PlanFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return clientNotFound()
	}
	c.PlanTier = fields.PlanTier
	c.SubscriptionID = fields.SubscriptionID
	c.SubscriptionStatus = fields.SubscriptionStatus
	c.MRRMinorUnits = fields.MRRMinorUnits
	return nil
}
