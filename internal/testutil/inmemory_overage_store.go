package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
)

// InMemoryOverageStore implements overage.Repository. MarkBilled mirrors the
// guarded Postgres update: it only transitions an unbilled row.
type InMemoryOverageStore struct {
	mu      sync.Mutex
	charges map[string]*overage.OverageCharge
}

// NewInMemoryOverageStore creates a new in-memory overage store
func NewInMemoryOverageStore() *InMemoryOverageStore {
	return &InMemoryOverageStore{
		charges: make(map[string]*overage.OverageCharge),
	}
}

func copyCharge(c *overage.OverageCharge) *overage.OverageCharge {
	if c == nil {
		return nil
	}
	copied := *c
	if c.BilledAt != nil {
		t := *c.BilledAt
		copied.BilledAt = &t
	}
	if c.InvoiceItemID != nil {
		id := *c.InvoiceItemID
		copied.InvoiceItemID = &id
	}
	return &copied
}

func (s *InMemoryOverageStore) Create(ctx context.Context, charge *overage.OverageCharge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges[charge.ID] = copyCharge(charge)
	return nil
}

func (s *InMemoryOverageStore) Get(ctx context.Context, id string) (*overage.OverageCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	charge, ok := s.charges[id]
	if !ok {
		return nil, ierr.NewError("overage charge not found").
			WithHintf("No overage charge %s", id).
			Mark(ierr.ErrNotFound)
	}
	return copyCharge(charge), nil
}

func (s *InMemoryOverageStore) ListUnbilled(ctx context.Context, subscriptionID string) ([]*overage.OverageCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*overage.OverageCharge
	for _, charge := range s.charges {
		if charge.SubscriptionID != subscriptionID || charge.Billed || charge.OverageUnits <= 0 {
			continue
		}
		items = append(items, copyCharge(charge))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *InMemoryOverageStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*overage.OverageCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*overage.OverageCharge
	for _, charge := range s.charges {
		if charge.SubscriptionID != subscriptionID {
			continue
		}
		items = append(items, copyCharge(charge))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *InMemoryOverageStore) MarkBilled(ctx context.Context, id string, invoiceItemID string, billedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	charge, ok := s.charges[id]
	if !ok || charge.Billed {
		return nil
	}
	charge.Billed = true
	charge.BilledAt = &billedAt
	charge.InvoiceItemID = &invoiceItemID
	return nil
}
