package service

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// SubscriptionService is the admin surface over subscription and commitment
// state, plus manual overage recording.
type SubscriptionService struct {
	ServiceParams
}

// NewSubscriptionService creates a subscription service
func NewSubscriptionService(params ServiceParams) *SubscriptionService {
	return &SubscriptionService{ServiceParams: params}
}

// SubscriptionResponse pairs the subscription with its commitment row, which
// may be absent for agreements created before commitment tracking.
type SubscriptionResponse struct {
	Subscription *subscription.Subscription       `json:"subscription"`
	Commitment   *subscription.CommitmentTracking `json:"commitment,omitempty"`
}

// GetSubscription returns the subscription and its commitment.
func (s *SubscriptionService) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	commitment, err := s.SubscriptionRepo.GetCommitment(ctx, subscriptionID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	return &SubscriptionResponse{
		Subscription: sub,
		Commitment:   commitment,
	}, nil
}

// SubscriptionListResponse is the admin listing payload.
type SubscriptionListResponse struct {
	Items      []*subscription.Subscription `json:"items"`
	Pagination Pagination                   `json:"pagination"`
}

// ListSubscriptions pages through subscriptions for the admin surface.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, filter *subscription.Filter) (*SubscriptionListResponse, error) {
	if filter == nil {
		filter = &subscription.Filter{}
	}

	items, err := s.SubscriptionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.SubscriptionRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &SubscriptionListResponse{
		Items: items,
		Pagination: Pagination{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}, nil
}

// RecordOverageRequest captures one manually-metered usage overage.
type RecordOverageRequest struct {
	UsageType    string `json:"usage_type" binding:"required"`
	OverageUnits int64  `json:"overage_units" binding:"required,gt=0"`
	OverageRate  int64  `json:"overage_rate" binding:"required,gt=0"`
}

// RecordOverage creates an unbilled overage charge for the subscription. The
// charge rides the next invoice.upcoming event for the subscription.
func (s *SubscriptionService) RecordOverage(ctx context.Context, subscriptionID string, req *RecordOverageRequest) (*overage.OverageCharge, error) {
	if _, err := s.SubscriptionRepo.Get(ctx, subscriptionID); err != nil {
		return nil, err
	}

	charge := overage.New(
		types.GetDefaultBaseModel(ctx),
		subscriptionID,
		req.UsageType,
		req.OverageUnits,
		req.OverageRate,
	)
	if err := s.OverageRepo.Create(ctx, charge); err != nil {
		return nil, err
	}

	s.Logger.Infow("overage charge recorded",
		"overage_id", charge.ID,
		"subscription_id", subscriptionID,
		"usage_type", charge.UsageType,
		"amount", charge.OverageAmount,
	)
	return charge, nil
}

// ListOverages returns all overage charges for the subscription, billed and
// unbilled.
func (s *SubscriptionService) ListOverages(ctx context.Context, subscriptionID string) ([]*overage.OverageCharge, error) {
	return s.OverageRepo.ListBySubscription(ctx, subscriptionID)
}
