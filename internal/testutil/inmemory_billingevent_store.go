package testutil

import (
	"context"
	"sync"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// InMemoryBillingEventStore implements billingevent.Repository with the same
// claim semantics as the Postgres ledger: one winner per event id, failed
// rows reclaimable.
type InMemoryBillingEventStore struct {
	mu     sync.Mutex
	events map[string]*billingevent.BillingEvent
}

// NewInMemoryBillingEventStore creates a new in-memory ledger
func NewInMemoryBillingEventStore() *InMemoryBillingEventStore {
	return &InMemoryBillingEventStore{
		events: make(map[string]*billingevent.BillingEvent),
	}
}

func (s *InMemoryBillingEventStore) TryBegin(ctx context.Context, event *billingevent.BillingEvent) (billingevent.BeginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.EventID]
	if !ok {
		s.events[event.EventID] = event
		return billingevent.BeginAccepted, nil
	}

	if existing.ProcessingStatus == types.ProcessingStatusFailed {
		existing.ProcessingStatus = types.ProcessingStatusProcessing
		existing.ProcessingError = nil
		return billingevent.BeginAccepted, nil
	}
	return billingevent.BeginAlreadyProcessed, nil
}

func (s *InMemoryBillingEventStore) MarkCompleted(ctx context.Context, eventID string) error {
	return s.setStatus(eventID, types.ProcessingStatusCompleted, nil)
}

func (s *InMemoryBillingEventStore) MarkFailed(ctx context.Context, eventID string, processingError string) error {
	return s.setStatus(eventID, types.ProcessingStatusFailed, &processingError)
}

func (s *InMemoryBillingEventStore) setStatus(eventID string, status types.ProcessingStatus, processingError *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return ierr.NewError("billing event not found").
			WithHintf("No ledger entry for event %s", eventID).
			Mark(ierr.ErrNotFound)
	}
	event.ProcessingStatus = status
	event.ProcessingError = processingError
	return nil
}

func (s *InMemoryBillingEventStore) Get(ctx context.Context, eventID string) (*billingevent.BillingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, ierr.NewError("billing event not found").
			WithHintf("No ledger entry for event %s", eventID).
			Mark(ierr.ErrNotFound)
	}
	copied := *event
	return &copied, nil
}

func (s *InMemoryBillingEventStore) List(ctx context.Context, filter *billingevent.Filter) ([]*billingevent.BillingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*billingevent.BillingEvent
	for _, event := range s.events {
		if filter != nil {
			if filter.EventType != "" && string(event.EventType) != filter.EventType {
				continue
			}
			if filter.ProcessingStatus != "" && string(event.ProcessingStatus) != filter.ProcessingStatus {
				continue
			}
		}
		copied := *event
		items = append(items, &copied)
	}
	return items, nil
}

func (s *InMemoryBillingEventStore) Count(ctx context.Context, filter *billingevent.Filter) (int, error) {
	items, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
