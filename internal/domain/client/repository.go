package client

import (
	"context"
)

// Filter narrows client listings for the admin surface.
type Filter struct {
	Email  string
	Limit  int
	Offset int
}

// Repository defines the interface for client directory data access
type Repository interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	GetByEmail(ctx context.Context, email string) (*Client, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*Client, error)
	List(ctx context.Context, filter *Filter) ([]*Client, error)
	Count(ctx context.Context, filter *Filter) (int, error)
	Update(ctx context.Context, c *Client) error

	// UpdatePlanFields overwrites the denormalized subscription projection.
	UpdatePlanFields(ctx context.Context, id string, fields *PlanFields) error
}
