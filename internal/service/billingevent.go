package service

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
)

// BillingEventService is the read surface over the idempotency ledger,
// used by the admin API for delivery auditing.
type BillingEventService struct {
	ServiceParams
}

// NewBillingEventService creates a billing event service
func NewBillingEventService(params ServiceParams) *BillingEventService {
	return &BillingEventService{ServiceParams: params}
}

// GetEvent returns one ledger entry by its processor event id.
func (s *BillingEventService) GetEvent(ctx context.Context, eventID string) (*billingevent.BillingEvent, error) {
	return s.BillingEventRepo.Get(ctx, eventID)
}

// BillingEventListResponse is the admin listing payload.
type BillingEventListResponse struct {
	Items      []*billingevent.BillingEvent `json:"items"`
	Pagination Pagination                   `json:"pagination"`
}

// ListEvents pages through the ledger, optionally filtered by event type and
// processing status.
func (s *BillingEventService) ListEvents(ctx context.Context, filter *billingevent.Filter) (*BillingEventListResponse, error) {
	if filter == nil {
		filter = &billingevent.Filter{}
	}

	items, err := s.BillingEventRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.BillingEventRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &BillingEventListResponse{
		Items: items,
		Pagination: Pagination{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}, nil
}
