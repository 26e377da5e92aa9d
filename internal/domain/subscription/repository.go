package subscription

import (
	"context"
)

// Filter narrows subscription listings for the admin surface.
type Filter struct {
	CustomerID         string
	ClientID           string
	SubscriptionStatus string
	Limit              int
	Offset             int
}

// Repository defines subscription and commitment data access. Subscription
// and commitment rows for the same agreement are created atomically via
// CreateWithCommitment; everything else is a single-row operation.
type Repository interface {
	CreateWithCommitment(ctx context.Context, sub *Subscription, commitment *CommitmentTracking) error

	Get(ctx context.Context, subscriptionID string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	List(ctx context.Context, filter *Filter) ([]*Subscription, error)
	Count(ctx context.Context, filter *Filter) (int, error)

	GetCommitment(ctx context.Context, subscriptionID string) (*CommitmentTracking, error)
	UpdateCommitment(ctx context.Context, commitment *CommitmentTracking) error
}
