package testutil

import (
	"context"
	"sync"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	mu            sync.Mutex
	subscriptions map[string]*subscription.Subscription
	commitments   map[string]*subscription.CommitmentTracking
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subscriptions: make(map[string]*subscription.Subscription),
		commitments:   make(map[string]*subscription.CommitmentTracking),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	return &copied
}

func copyCommitment(c *subscription.CommitmentTracking) *subscription.CommitmentTracking {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

func (s *InMemorySubscriptionStore) CreateWithCommitment(ctx context.Context, sub *subscription.Subscription, commitment *subscription.CommitmentTracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.SubscriptionID]; ok {
		return ierr.NewError("subscription already exists").
			WithHintf("Subscription %s was already created", sub.SubscriptionID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.subscriptions[sub.SubscriptionID] = copySubscription(sub)
	s.commitments[commitment.SubscriptionID] = copyCommitment(commitment)
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, subscriptionID string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("No subscription %s", subscriptionID).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.SubscriptionID]; !ok {
		return ierr.NewError("subscription not found").
			WithHintf("No subscription %s", sub.SubscriptionID).
			Mark(ierr.ErrNotFound)
	}
	s.subscriptions[sub.SubscriptionID] = copySubscription(sub)
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *subscription.Filter) ([]*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*subscription.Subscription
	for _, sub := range s.subscriptions {
		if filter != nil {
			if filter.CustomerID != "" && sub.CustomerID != filter.CustomerID {
				continue
			}
			if filter.SubscriptionStatus != "" && string(sub.SubscriptionStatus) != filter.SubscriptionStatus {
				continue
			}
		}
		items = append(items, copySubscription(sub))
	}
	return items, nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *subscription.Filter) (int, error) {
	items, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *InMemorySubscriptionStore) GetCommitment(ctx context.Context, subscriptionID string) (*subscription.CommitmentTracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	commitment, ok := s.commitments[subscriptionID]
	if !ok {
		return nil, ierr.NewError("commitment not found").
			WithHintf("No commitment for subscription %s", subscriptionID).
			Mark(ierr.ErrNotFound)
	}
	return copyCommitment(commitment), nil
}

func (s *InMemorySubscriptionStore) UpdateCommitment(ctx context.Context, commitment *subscription.CommitmentTracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.commitments[commitment.SubscriptionID]; !ok {
		return ierr.NewError("commitment not found").
			WithHintf("No commitment for subscription %s", commitment.SubscriptionID).
			Mark(ierr.ErrNotFound)
	}
	s.commitments[commitment.SubscriptionID] = copyCommitment(commitment)
	return nil
}
